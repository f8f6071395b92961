package shield

import "net/http"

// MaxBody returns middleware that limits the request body size for POST and
// PUT requests. Reads past the limit fail, which surfaces as a 400 from the
// multipart parser rather than unbounded memory use.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
