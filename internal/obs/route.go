package obs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// unmatchedRoute labels requests the router had no route for, keeping raw
// paths out of metric labels and span names.
const unmatchedRoute = "unmatched"

// Route returns the chi route template that served r, such as
// "/api/v1/items/{sku}". chi fills the template in while routing, so callers
// must read it after the wrapped handler has returned.
func Route(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}

// responseStatus reports the status written through ww. Handlers that write
// nothing leave the implicit 200.
func responseStatus(ww middleware.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
