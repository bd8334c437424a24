package audiostore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"murmur/internal/config"
)

// Store abstracts where recorded audio lives. References are opaque keys
// produced by NewRef; backends map them to files or object keys.
type Store interface {
	Save(ctx context.Context, ref string, data []byte) error
	Read(ctx context.Context, ref string) ([]byte, error)
	Size(ctx context.Context, ref string) (int64, error)
}

// New selects the backend named by the configuration.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.AudioStore.Backend {
	case config.BackendLocal:
		return NewLocal(cfg.Paths.AudioDir)
	case config.BackendS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown audio store backend %q", cfg.AudioStore.Backend)
	}
}

// NewRef builds a unique storage reference for an owner's recording, keeping
// the original file extension so transcription gets a format hint.
func NewRef(ownerID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = ".m4a"
	}
	now := time.Now().UTC()
	return fmt.Sprintf("users/%s/%s/%s%s", ownerID, now.Format("2006/01/02"), uuid.NewString(), ext)
}
