// Package fiberx binds the authenticators to Fiber applications.
package fiberx

import (
	"time"

	"github.com/gofiber/fiber/v2"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
)

var _ ports.CookieJar = (*CookieJar)(nil)

// CookieJar adapts a fiber.Ctx to ports.CookieJar.
// An empty cookie value reads as absent.
type CookieJar struct {
	c       *fiber.Ctx
	pending map[string]*string
}

// NewCookieJar binds a jar to one request.
func NewCookieJar(c *fiber.Ctx) *CookieJar {
	return &CookieJar{c: c, pending: map[string]*string{}}
}

func (j *CookieJar) Get(name string) (string, bool) {
	if v, ok := j.pending[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	v := j.c.Cookies(name)
	return v, v != ""
}

func (j *CookieJar) Set(name, value string, opts domainauth.CookieOptions) {
	ck := toFiberCookie(name, value, opts)
	if opts.MaxAge == nil {
		ck.SessionOnly = true
	}
	j.c.Cookie(ck)
	j.pending[name] = &value
}

func (j *CookieJar) Delete(name string, opts domainauth.CookieOptions) {
	ck := toFiberCookie(name, "", opts)
	// fasthttp omits Max-Age when it is not positive, so expiry does the deleting.
	ck.MaxAge = 0
	ck.Expires = time.Unix(0, 0).UTC()
	j.c.Cookie(ck)
	j.pending[name] = nil
}

func toFiberCookie(name, value string, opts domainauth.CookieOptions) *fiber.Cookie {
	ck := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Secure:   opts.Secure,
		HTTPOnly: opts.HTTPOnly,
		SameSite: sameSite(opts.SameSite),
	}
	if opts.MaxAge != nil && *opts.MaxAge > 0 {
		ck.MaxAge = *opts.MaxAge
	}
	return ck
}

func sameSite(s domainauth.SameSite) string {
	switch s {
	case domainauth.SameSiteStrict:
		return fiber.CookieSameSiteStrictMode
	case domainauth.SameSiteNone:
		return fiber.CookieSameSiteNoneMode
	default:
		return fiber.CookieSameSiteLaxMode
	}
}
