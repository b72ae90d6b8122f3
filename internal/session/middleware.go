package session

import (
	"context"
	"net/http"
)

// DefaultCookieName is used when no cookie name is configured
const DefaultCookieName = "dsc_session"

type contextKey struct{}

// WithSession returns a context carrying sess
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored by Middleware
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok
}

// CookieOptions configures the session cookie
type CookieOptions struct {
	Name   string
	Secure bool
}

// Middleware attaches the caller's session to the request context. The cookie
// is written on every response so its Max-Age slides with the server-side idle
// timeout; a request without a live session gets a new one.
func Middleware(store *Store, opts CookieOptions) func(http.Handler) http.Handler {
	if opts.Name == "" {
		opts.Name = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(opts.Name); err == nil {
				id = c.Value
			}

			sess, _ := store.GetOrCreate(id)

			cookie := &http.Cookie{
				Name:     opts.Name,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if ttl := store.TTL(); ttl > 0 {
				cookie.MaxAge = int(ttl.Seconds())
			}
			http.SetCookie(w, cookie)

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}
