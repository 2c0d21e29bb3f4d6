package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medidesk/medidesk/internal/platform/api"
)

// CookieName is the session cookie.
const CookieName = "dashboard_session"

// Middleware resolves the session cookie into upstream credentials on the
// request context. Requests without a live session are rejected before any
// upstream call, as are sessions whose stored JWT has already expired.
func Middleware(store Store, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}

			id, err := uuid.Parse(cookie.Value)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}

			ctx := c.Request().Context()
			sess, err := store.Get(ctx, id)
			if err == ErrNotFound {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}
			if err != nil {
				logger.Error().Err(err).Msg("load session")
				return echo.NewHTTPError(http.StatusInternalServerError, "session lookup failed")
			}

			now := time.Now()
			if sess.Expired(now) || TokenExpired(sess.Token, now) {
				if err := store.Delete(ctx, id); err != nil {
					logger.Error().Err(err).Msg("delete expired session")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			c.Set("session_id", sess.ID.String())
			creds := api.Credentials{Token: sess.Token, Language: sess.Language}
			c.SetRequest(c.Request().WithContext(api.WithCredentials(ctx, creds)))
			return next(c)
		}
	}
}
