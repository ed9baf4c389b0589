package shield

import "net/http"

// HeadToGet serves HEAD requests through the GET handlers (load balancer
// probes hit /healthz and the login pages with HEAD). The body is dropped
// here rather than relying on the server, so handlers wrapped by
// httptest.ResponseRecorder behave the same way.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		r2 := r.Clone(r.Context())
		r2.Method = http.MethodGet
		next.ServeHTTP(headWriter{w}, r2)
	})
}

type headWriter struct {
	http.ResponseWriter
}

func (w headWriter) Write(b []byte) (int, error) { return len(b), nil }

func (w headWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
