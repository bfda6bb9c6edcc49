// AngelaMos | 2026
// cookie.go

package auth

import (
	"net/http"
	"time"

	"github.com/carterperez-dev/brasil-no-mundo/internal/config"
)

const refreshCookiePath = "/api/auth"

type CookieManager struct {
	cfg      config.SessionConfig
	sameSite http.SameSite
}

func NewCookieManager(cfg config.SessionConfig) *CookieManager {
	return &CookieManager{cfg: cfg, sameSite: parseSameSite(cfg.SameSite)}
}

func parseSameSite(mode string) http.SameSite {
	switch mode {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteNoneMode
	}
}

func (c *CookieManager) AccessCookieName() string {
	return c.cfg.AccessCookie
}

func (c *CookieManager) RefreshCookieName() string {
	return c.cfg.RefreshCookie
}

func (c *CookieManager) SetSession(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, c.cookie(c.cfg.AccessCookie, s.AccessToken, "/", s.AccessExpiresAt))
	http.SetCookie(w, c.cookie(c.cfg.RefreshCookie, s.RefreshToken, refreshCookiePath, s.RefreshExpiresAt))
}

func (c *CookieManager) Clear(w http.ResponseWriter) {
	for _, cookie := range []*http.Cookie{
		c.cookie(c.cfg.AccessCookie, "", "/", time.Time{}),
		c.cookie(c.cfg.RefreshCookie, "", refreshCookiePath, time.Time{}),
	} {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		http.SetCookie(w, cookie)
	}
}

func (c *CookieManager) RefreshToken(r *http.Request) string {
	cookie, err := r.Cookie(c.cfg.RefreshCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c *CookieManager) cookie(
	name, value, path string,
	expires time.Time,
) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.cfg.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.sameSite,
	}
}
