package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"unibooker.org/internal/config"
	"unibooker.org/internal/gateway"
	"unibooker.org/internal/obs"
	"unibooker.org/internal/token"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo("gateway", version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	codec, err := token.NewCodec([]byte(cfg.AuthSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
		token.WithIssuer("unibooker"))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	proxy, err := gateway.NewProxy([]gateway.Backend{
		{Prefix: "/api/auth/", Target: cfg.IdentityServiceURL},
		{Prefix: "/api/users/check-email", Target: cfg.IdentityServiceURL},
		{Prefix: "/api/users/find-email", Target: cfg.IdentityServiceURL},
		{Prefix: "/api/users/reset-password", Target: cfg.IdentityServiceURL},
		{Prefix: "/api/users/", Target: cfg.MainServiceURL},
		{Prefix: "/api/admins/", Target: cfg.MainServiceURL},
		{Prefix: "/api/managers/", Target: cfg.MainServiceURL},
		{Prefix: "/api/super/", Target: cfg.MainServiceURL},
		{Prefix: "/api/companies/", Target: cfg.MainServiceURL},
		{Prefix: "/api/notifications/", Target: cfg.MainServiceURL},
		{Prefix: "/api/resources/", Target: cfg.ResourceServiceURL},
		{Prefix: "/api/resource-groups/", Target: cfg.ResourceServiceURL},
		{Prefix: "/api/resource-time-slots/", Target: cfg.ResourceServiceURL},
		{Prefix: "/", Target: cfg.MainServiceURL},
	})
	if err != nil {
		log.Fatalf("proxy: %v", err)
	}

	filter := gateway.NewFilter(codec, gateway.NewClassifier(gateway.DefaultRules()))

	var ready atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"unibooker-gateway"}`))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not_ready"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})
	mux.Handle("/metrics", obs.Handler())
	mux.Handle("/", filter.Handler(proxy))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           obs.Instrument(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting unibooker-gateway %s on %s", version, srv.Addr)

	ready.Store(true)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ready.Store(false)
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
