package audiostore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"murmur/internal/services"
)

// Local stores audio as files under a root directory.
type Local struct {
	root string
}

// NewLocal creates a local backend rooted at the given directory.
func NewLocal(root string) (*Local, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("audio dir is required for the local backend")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) resolve(ref string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(ref))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid audio ref %q", ref)
	}
	return filepath.Join(l.root, cleaned), nil
}

func (l *Local) Save(ctx context.Context, ref string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := l.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create audio subdir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write audio %s: %w", ref, err)
	}
	return nil
}

func (l *Local) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "audiostore", "read", ref, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read audio %s: %w", ref, err)
	}
	return data, nil
}

func (l *Local) Size(ctx context.Context, ref string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	target, err := l.resolve(ref)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, services.Wrap(services.ErrNotFound, "audiostore", "stat", ref, err)
	}
	if err != nil {
		return 0, fmt.Errorf("stat audio %s: %w", ref, err)
	}
	return info.Size(), nil
}
