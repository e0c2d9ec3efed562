package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"unibooker.org/internal/obs"
)

// Backend maps a path prefix to one downstream service.
type Backend struct {
	Prefix string
	Target string
}

type route struct {
	prefix string
	proxy  *httputil.ReverseProxy
}

// Proxy forwards enriched requests to the backend owning the path prefix.
// The routing table is fixed at startup.
type Proxy struct {
	routes []route
}

// NewProxy builds one reverse proxy per backend. Longest prefix wins.
func NewProxy(backends []Backend) (*Proxy, error) {
	routes := make([]route, 0, len(backends))
	for _, b := range backends {
		target, err := url.Parse(b.Target)
		if err != nil {
			return nil, fmt.Errorf("parse backend target %q: %w", b.Target, err)
		}
		if target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("backend target %q must be an absolute URL", b.Target)
		}
		rp := httputil.NewSingleHostReverseProxy(target)
		rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			obs.LogRequest(map[string]any{
				"level": "error",
				"msg":   "proxy_error",
				"path":  r.URL.Path,
				"error": err.Error(),
			})
			writeProxyError(w, http.StatusBadGateway, 20001, "upstream unavailable")
		}
		routes = append(routes, route{prefix: b.Prefix, proxy: rp})
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return len(routes[i].prefix) > len(routes[j].prefix)
	})
	return &Proxy{routes: routes}, nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, rt := range p.routes {
		if strings.HasPrefix(r.URL.Path, rt.prefix) {
			rt.proxy.ServeHTTP(w, r)
			return
		}
	}
	writeProxyError(w, http.StatusNotFound, 20000, "no route for path")
}

func writeProxyError(w http.ResponseWriter, status, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": msg,
	})
}
