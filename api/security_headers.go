package api

import (
	"net/http"
	"strings"
)

// spotifyOrigin serves the embedded player on the home page.
const spotifyOrigin = "https://open.spotify.com"

// SecurityHeaders returns middleware that sets standard security response
// headers. imageOrigins are extra origins allowed in img-src, such as the
// public storage bucket.
func SecurityHeaders(imageOrigins ...string) func(http.Handler) http.Handler {
	csp := contentSecurityPolicy(imageOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Content-Security-Policy", csp)

			if requestIsSecure(r) {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func contentSecurityPolicy(imageOrigins []string) string {
	img := []string{"'self'", "data:"}
	for _, o := range imageOrigins {
		if o = strings.TrimRight(o, "/"); o != "" {
			img = append(img, o)
		}
	}
	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src " + strings.Join(img, " "),
		"frame-src " + spotifyOrigin,
		"connect-src 'self'",
	}, "; ")
}
