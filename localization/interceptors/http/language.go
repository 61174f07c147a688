package http

import (
	"net/http"

	"github.com/pitabwire/jsonlocale/localization"
)

// LanguageHTTPMiddleware puts the cultures requested through the "lang" form value and
// Accept-Language into the request context. A request naming none keeps its context.
func LanguageHTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cultures := localization.ExtractLanguageFromHTTPRequest(r)
		if len(cultures) > 0 {
			r = r.WithContext(localization.ToContext(r.Context(), cultures))
		}

		next.ServeHTTP(w, r)
	})
}
