package main

import (
	"context"
	"database/sql"
	"encoding/hex"
	"log"
	"log/slog"
	"net/http"
	"os"

	_ "modernc.org/sqlite"

	"academy/internal/adapters/api"
	web "academy/internal/adapters/http"
	"academy/internal/adapters/http/perf"
	"academy/internal/adapters/storage"
	auditStore "academy/internal/adapters/storage/audit"
	"academy/internal/adapters/storage/credential"
	"academy/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("failed to read .env: %v", err)
	}
	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		log.Fatalf("%v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB and upstream calls with timing
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	var sealer *credential.Sealer
	if cfg.CredentialKey != "" {
		sealer, err = credential.NewSealerHex(cfg.CredentialKey)
	} else {
		slog.Warn("credential_key_ephemeral", "detail", "stored tokens are unreadable after a restart")
		sealer, err = credential.NewEphemeralSealer()
	}
	if err != nil {
		log.Fatalf("failed to create credential sealer: %v", err)
	}

	credentials := credential.NewSQLiteStore(timedDB, sealer)
	// Sessions live in memory, so tokens held for earlier sessions are orphans.
	if n, err := credentials.DeletePrefix(context.Background(), cfg.CredentialName+":"); err != nil {
		log.Fatalf("failed to clear session credentials: %v", err)
	} else if n > 0 {
		slog.Info("session_credentials_cleared", "count", n)
	}
	stores := &web.Stores{
		CredentialStore: credentials,
		AuditStore:      auditStore.NewSQLiteStore(timedDB),
	}

	client, err := api.NewClient(cfg.APIBaseURL, &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: perf.NewTransport(nil, collector),
	}, credential.Source{
		Store: credentials,
		Name:  cfg.CredentialName,
		Key:   web.SessionCredentialKey(cfg.CredentialName),
	})
	if err != nil {
		log.Fatalf("failed to create backend client: %v", err)
	}

	var csrfKey []byte
	if cfg.CSRFKey != "" {
		if csrfKey, err = hex.DecodeString(cfg.CSRFKey); err != nil {
			log.Fatalf("invalid csrf key: %v", err)
		}
	}

	mux, err := web.NewMux(client, stores, web.Options{
		CSRFKey:         csrfKey,
		Secure:          cfg.IsProduction(),
		CredentialName:  cfg.CredentialName,
		SessionTTL:      cfg.SessionTTL,
		PageTTL:         cfg.PageTTL,
		MaxPages:        cfg.MaxPages,
		ShowFetchErrors: cfg.ShowFetchErrors,
		Formatter:       cfg.Formatter(),
	}, collector)
	if err != nil {
		log.Fatalf("failed to build handler: %v", err)
	}

	log.Printf("academy %s starting on %s (env=%s, schema=%d)", version, cfg.Addr, cfg.Env, storage.LatestSchemaVersion())
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
