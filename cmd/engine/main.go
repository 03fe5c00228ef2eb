package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/docstore"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/httpapi"
	"jobmatch-engine/internal/notify"
	"jobmatch-engine/internal/pipeline"
	"jobmatch-engine/internal/scheduler"
)

func main() {
	// Secrets come from the environment; .env is a dev convenience.
	_ = godotenv.Load()

	dataDir := os.Getenv("JOBMATCH_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	if _, vr := config.NormalizeAndValidate(cfg); !vr.OK() {
		log.Fatalf("config invalid (%s): %v", userCfgPath, vr.Errors)
	}
	cfgVal.Store(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("document store: %v", err)
	}
	defer cleanup()

	hub := events.NewHub()

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.RatePerSec, cfg.Notify.Burst)
	}

	runner := pipeline.NewRunner(cfg, store, notifier, hub)

	if cfg.Schedule.Enabled {
		sched := scheduler.New(runner, cfg.Schedule.Cron)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		defer sched.Stop()
	}

	mux := httpapi.NewMux(httpapi.Deps{
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		Pipeline:    runner,
		Auth: httpapi.BearerAuth{
			Secret:     os.Getenv("SYNC_SECRET"),
			SessionKey: []byte(os.Getenv("SESSION_JWT_SECRET")),
		},
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (staging=%s store=%s)", addr, cfg.Staging.Path, cfg.Store.Backend)

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover,
			httpapi.AccessLog,
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// openStore picks the document-store backend. Firestore in production;
// memory keeps local dev off GCP.
func openStore(ctx context.Context, cfg config.Config) (docstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case "firestore":
		fs, err := docstore.NewFirestore(ctx, cfg.Store.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() { _ = fs.Close() }, nil
	case "memory":
		log.Printf("level=warn msg=\"using in-memory document store; data will not survive restart\"")
		return docstore.NewMemory(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
