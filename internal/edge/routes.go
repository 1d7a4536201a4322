package edge

import (
	"net/http"

	"github.com/ChristopherCousin/Kcal/internal/config"
)

type Route struct {
	URL     string
	Handler http.Handler
}

// Router collects API routes, each restricted to one method.
type Router struct {
	routes []Route
}

func (rt *Router) Get(url string, handler http.Handler) {
	rt.routes = append(rt.routes, Route{URL: url, Handler: methodHandler(http.MethodGet, handler)})
}

func (rt *Router) Post(url string, handler http.Handler) {
	rt.routes = append(rt.routes, Route{URL: url, Handler: methodHandler(http.MethodPost, handler)})
}

func (rt *Router) Routes() []Route {
	return rt.routes
}

func methodHandler(method string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeJSON(w, http.StatusMethodNotAllowed, analyzeResponse{Error: "method not allowed"})
			return
		}
		handler.ServeHTTP(w, r)
	})
}

// NewRouter registers the function routes. The bearer check wraps only
// the function itself so pre-flight requests stay anonymous.
func NewRouter(conf *config.Config, analyze *AnalyzeFoodHandler) *Router {
	rt := &Router{}
	rt.Post(AnalyzeFoodPath, BearerAuth(conf.Server.JWTSecret, analyze))
	return rt
}
