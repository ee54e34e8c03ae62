package middleware

import "net/http"

// OriginPolicy decides which browser origins may call the API. "*" allows
// any origin.
type OriginPolicy struct {
	allowAll bool
	origins  map[string]struct{}
}

func NewOriginPolicy(allowedOrigins []string) *OriginPolicy {
	p := &OriginPolicy{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, o := range allowedOrigins {
		if o == "*" {
			p.allowAll = true
		}
		p.origins[o] = struct{}{}
	}
	return p
}

// Allows reports whether a non-empty origin is allowed.
func (p *OriginPolicy) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	_, listed := p.origins[origin]
	return p.allowAll || listed
}

// CheckOrigin is the websocket upgrader check. Requests without an Origin
// header do not come from a browser and are accepted.
func (p *OriginPolicy) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || p.Allows(origin)
}

// CORS allows cross-origin requests from the policy's origins. Preflight
// requests are answered here and never reach next.
func CORS(policy *OriginPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if policy.Allows(origin) {
				if policy.allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so that the first one listed runs first.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
