package providers

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

const corsAllowHeaders = "Authorization, Content-Type, Accept, Origin, Cache-Control, X-Requested-With"

// CorsMiddleware allows every origin and answers preflight requests itself.
func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CompressionMiddleware gzips responses for clients that accept it.
// Image bytes are already compressed, so only JSON payloads benefit.
func CompressionMiddleware(next http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(1024),
		gzhttp.ContentTypes([]string{"application/json"}),
	)
	if err != nil {
		return next
	}
	return wrapper(next)
}
