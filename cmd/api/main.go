package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"hrdesk/internal/assistant"
	"hrdesk/internal/attendance"
	"hrdesk/internal/config"
	"hrdesk/internal/db"
	"hrdesk/internal/http"
	"hrdesk/internal/http/handlers"
	"hrdesk/internal/realtime"
	"hrdesk/internal/seed"
	"hrdesk/internal/storage"
	"hrdesk/internal/store"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb := db.Connect(cfg.DBDriver, cfg.DSN)
	if err := db.AutoMigrate(gdb); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if _, err := seed.FirstSetup(ctx, gdb, seed.Options{
		OrgSlug:       cfg.SignupOrg,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}); err != nil {
		log.Fatalf("❌ seed failed: %v", err)
	}

	hub := realtime.NewHub()
	store.Register(hub)

	var pub realtime.Publisher = realtime.Local{Hub: hub}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		relay := realtime.NewRedis(client, cfg.RedisChannel, hub)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Fatalf("❌ realtime relay: %v", err)
			}
		}()
		pub = relay
	}

	objects, local := openStorage(ctx, cfg)

	llm := assistant.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	if !llm.Configured() {
		log.Println("⚠️ LLM_API_KEY not set, assistant disabled")
	}

	d := handlers.NewDeps(gdb, pub, hub, objects, llm,
		attendance.Policy{WorkdayStart: cfg.WorkdayStart, Grace: cfg.LateGrace},
		handlers.Settings{
			JWTSecret:        cfg.JWTSecret,
			SecureCookie:     strings.HasPrefix(cfg.PublicURL, "https://"),
			Location:         cfg.Location,
			SignupOrg:        cfg.SignupOrg,
			SignupNeedsAdmin: cfg.SignupNeedsAdmin,
			DocumentURLTTL:   cfg.DocumentURLTTL,
			MaxUploadBytes:   cfg.MaxUploadBytes,
			PublicURL:        cfg.PublicURL,
		})

	r := httpserver.NewRouter(d, local)
	log.Printf("🚀 Server listening on :%s\n", cfg.AppPort)
	if err := r.Run(fmt.Sprintf(":%s", cfg.AppPort)); err != nil {
		log.Fatalf("❌ server stopped: %v", err)
	}
}

// openStorage picks the document store. local is returned separately so the
// router can serve its signed URLs.
func openStorage(ctx context.Context, cfg config.Config) (storage.ObjectStore, *storage.Local) {
	switch cfg.StorageDriver {
	case "minio":
		m, err := storage.NewMinIO(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Printf("⚠️ minio unavailable, documents disabled: %v", err)
			return storage.Unconfigured{}, nil
		}
		log.Printf("✅ Documents stored in bucket %s", cfg.MinioBucket)
		return m, nil
	case "none":
		return storage.Unconfigured{}, nil
	default:
		l, err := storage.NewLocal(cfg.StorageDir, []byte(cfg.JWTSecret), cfg.PublicURL)
		if err != nil {
			log.Fatalf("❌ local storage: %v", err)
		}
		log.Printf("✅ Documents stored under %s", cfg.StorageDir)
		return l, l
	}
}
