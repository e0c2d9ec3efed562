package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"unibooker.org/internal/auth"
	"unibooker.org/internal/config"
	"unibooker.org/internal/httpapi"
	"unibooker.org/internal/obs"
	"unibooker.org/internal/token"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo("identity", version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if db == nil {
		log.Fatal("missing DSN: set UNIBOOKER_PG_DSN")
	}

	codec, err := token.NewCodec([]byte(cfg.AuthSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
		token.WithIssuer("unibooker"))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	sessions := auth.NewService(auth.NewPGStore(db), codec)
	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, sessions, cfg.RateBurst, cfg.RatePerSec)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting unibooker-identity %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
