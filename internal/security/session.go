package security

import (
	"net/http"
	"time"
)

const (
	AuthCookieName    = "auth"
	RefreshCookieName = "refresh"
)

// CookiePolicy decides the attributes of the auth and refresh cookies.
type CookiePolicy struct {
	Domain     string
	Production bool
}

// IsSecureRequest determines if the request is over HTTPS
// Checks TLS connection, X-Forwarded-Proto header (for reverse proxies), and URL scheme
func IsSecureRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL != nil && r.URL.Scheme == "https"
}

// Cookie creates an HTTP-only cookie. Production cookies are Secure and
// SameSite=None so the SPA on another origin receives them.
func (p CookiePolicy) Cookie(r *http.Request, name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.Domain,
		MaxAge:   int(maxAge / time.Second),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
	if p.Production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// DeleteCookie creates a cookie for deletion with the same scope flags
func (p CookiePolicy) DeleteCookie(r *http.Request, name string) *http.Cookie {
	c := p.Cookie(r, name, "", 0)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}
