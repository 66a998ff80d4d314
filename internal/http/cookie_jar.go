package httpx

import (
	"net/http"
	"time"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
)

var _ ports.CookieJar = (*CookieJar)(nil)

// CookieJar reads request cookies and writes Set-Cookie headers on the response.
// Writes made during the request are visible to later reads.
type CookieJar struct {
	w       http.ResponseWriter
	r       *http.Request
	pending map[string]*string
}

// NewCookieJar binds a jar to one request/response pair.
func NewCookieJar(w http.ResponseWriter, r *http.Request) *CookieJar {
	return &CookieJar{w: w, r: r, pending: map[string]*string{}}
}

func (j *CookieJar) Get(name string) (string, bool) {
	if v, ok := j.pending[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	c, err := j.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (j *CookieJar) Set(name, value string, opts domainauth.CookieOptions) {
	http.SetCookie(j.w, toHTTPCookie(name, value, opts))
	j.pending[name] = &value
}

func (j *CookieJar) Delete(name string, opts domainauth.CookieOptions) {
	c := toHTTPCookie(name, "", opts.Expired())
	c.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(j.w, c)
	j.pending[name] = nil
}

func toHTTPCookie(name, value string, opts domainauth.CookieOptions) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Secure:   opts.Secure,
		HttpOnly: opts.HTTPOnly,
		SameSite: sameSiteMode(opts.SameSite),
	}
	if opts.MaxAge != nil {
		if *opts.MaxAge <= 0 {
			// net/http encodes negative MaxAge as "Max-Age=0".
			c.MaxAge = -1
		} else {
			c.MaxAge = *opts.MaxAge
		}
	}
	return c
}

func sameSiteMode(s domainauth.SameSite) http.SameSite {
	switch s {
	case domainauth.SameSiteStrict:
		return http.SameSiteStrictMode
	case domainauth.SameSiteNone:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
