package app

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/impersonation"
	"github.com/rentora/rentora-admin/internal/platform/httpx"
	"github.com/rentora/rentora-admin/internal/shared"
	"github.com/rentora/rentora-admin/internal/token"
)

// SessionValidator checks impersonation token claims against the stored
// session state.
type SessionValidator interface {
	Validate(ctx context.Context, claims *token.Claims) (impersonation.Session, error)
}

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger *slog.Logger
	Config *Config
}

// MiddlewareStack installs the base middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	rateLimit := 120
	if cfg.Config != nil {
		if cfg.Config.AppRequestTimeout > 0 {
			timeout = cfg.Config.AppRequestTimeout
		}
		if cfg.Config.RateLimitPerMinute > 0 {
			rateLimit = cfg.Config.RateLimitPerMinute
		}
	}

	return []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(rateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
}

// Authenticator turns bearer tokens into request actors.
type Authenticator struct {
	Logger    *slog.Logger
	Tokens    *token.Manager
	Blacklist *token.Blacklist
	Sessions  SessionValidator
}

// Middleware rejects requests without a valid, unrevoked token. For
// impersonation tokens it additionally requires the backing session to be
// active, so ending a session cuts access before the token expires.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}

		revoked, err := a.Blacklist.IsRevoked(r.Context(), raw)
		if err != nil {
			// Fail closed: without the revocation set we cannot trust any token.
			a.Logger.Error("blacklist check failed", slog.Any("error", err))
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		if revoked {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}

		claims, err := a.Tokens.Verify(raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}

		if claims.TokenType == token.TypeImpersonation {
			if _, err := a.Sessions.Validate(r.Context(), claims); err != nil {
				httpx.RespondError(w, err)
				return
			}
		}

		ctx := authz.ContextWithActor(r.Context(), claims.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
