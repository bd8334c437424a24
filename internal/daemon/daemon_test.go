package daemon_test

import (
	"context"
	"testing"
	"time"

	"murmur/internal/ai"
	"murmur/internal/audiostore"
	"murmur/internal/config"
	"murmur/internal/daemon"
	"murmur/internal/dispatch"
	"murmur/internal/journal"
	"murmur/internal/logging"
	"murmur/internal/pipeline"
	"murmur/internal/reconcile"
	"murmur/internal/testsupport"
)

type fixture struct {
	cfg    *config.Config
	store  *journal.Store
	queue  *dispatch.Queue
	daemon *daemon.Daemon
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	queue := testsupport.MustOpenQueue(t, cfg)
	audio, err := audiostore.NewLocal(cfg.Paths.AudioDir)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	logger := logging.NewNop()
	pm := pipeline.NewManager(cfg, store, queue, audio, ai.MockSuite(), logger,
		pipeline.WithPollInterval(5*time.Millisecond))
	reconciler := reconcile.New(cfg, store, queue, logger)

	d, err := daemon.New(cfg, store, queue, pm, reconciler, logger)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	t.Cleanup(d.Stop)
	return &fixture{cfg: cfg, store: store, queue: queue, daemon: d}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := daemon.New(nil, nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestStartStop(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := fx.daemon.Status(ctx)
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.JournalDBPath == "" || status.DispatchDBPath == "" {
		t.Fatalf("expected database paths in status, got %#v", status)
	}
	if fx.daemon.APIAddr() == "" {
		t.Fatal("expected bound api address")
	}

	if err := fx.daemon.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}

	fx.daemon.Stop()
	if fx.daemon.Status(ctx).Running {
		t.Fatal("expected stopped status")
	}
}

func TestSingleInstanceLock(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	audio, err := audiostore.NewLocal(fx.cfg.Paths.AudioDir)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	logger := logging.NewNop()
	pm := pipeline.NewManager(fx.cfg, fx.store, fx.queue, audio, ai.MockSuite(), logger)
	second, err := daemon.New(fx.cfg, fx.store, fx.queue, pm, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	defer second.Stop()

	if err := second.Start(ctx); err == nil {
		t.Fatal("expected second instance to fail the lock")
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	fx := newFixture(t)

	sent, detail, err := fx.daemon.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if sent {
		t.Fatal("expected notification to be skipped without topic")
	}
	if detail == "" {
		t.Fatal("expected explanatory detail")
	}
}
