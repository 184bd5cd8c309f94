package auth

import (
	"math"
	"net/http"
	"time"
)

// cookieWriter builds the auth cookies. Both cookies share every attribute
// except name, value and lifetime.
type cookieWriter struct {
	secure bool
}

func (cw cookieWriter) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   cw.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAgeSeconds(maxAge),
	})
}

// clear emits an empty cookie with Max-Age=0 so the browser drops it.
func (cw cookieWriter) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   cw.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// maxAgeSeconds rounds d up to whole seconds.
func maxAgeSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
