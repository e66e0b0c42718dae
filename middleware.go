package cloudflare

import "net/http"

// Middleware wraps next so every inbound request passes through client
// address restoration before reaching it.
//
// Downstream handlers observe the restored address in Request.RemoteAddr.
// Failures never stop the request: on spoof rejection or unavailable
// ranges the address is simply left as observed, and the outcome has
// already been logged and counted.
func (c *Restorer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = c.Restore(r)
		next.ServeHTTP(w, r)
	})
}
