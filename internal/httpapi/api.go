package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"unibooker.org/internal/auth"
	"unibooker.org/internal/obs"
)

// ReadyProbe checks the identity store before reporting readiness.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the identity-service HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	sessions   *auth.Service

	rateBurst  int
	ratePerSec int
}

// New wires the routes. sessions must be fully constructed; nothing is
// assigned after New returns.
func New(rp ReadyProbe, version string, sessions *auth.Service, rateBurst, ratePerSec int) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		sessions:   sessions,
		rateBurst:  rateBurst,
		ratePerSec: ratePerSec,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/signup", a.handleSignUp)
	a.mux.HandleFunc("/api/auth/admin/signup", a.handleAdminSignUp)
	a.mux.HandleFunc("/api/auth/refresh", a.handleRefresh)

	a.mux.HandleFunc("/api/users/check-email", a.handleCheckEmail)
	a.mux.HandleFunc("/api/users/find-email", a.handleFindEmail)
	a.mux.HandleFunc("/api/users/reset-password", a.handleResetPassword)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, codeBadRequest, "resource not found")
	})

	return a
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "unibooker-identity",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "unibooker-identity",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
