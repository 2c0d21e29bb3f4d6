package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handler exposes sign-in and sign-out over HTTP. Authentication itself
// happens upstream; the dashboard only stores the resulting bearer token.
type Handler struct {
	store           Store
	ttl             time.Duration
	defaultLanguage string
	secureCookie    bool
}

// NewHandler creates a Handler.
func NewHandler(store Store, ttl time.Duration, defaultLanguage string, secureCookie bool) *Handler {
	return &Handler{
		store:           store,
		ttl:             ttl,
		defaultLanguage: defaultLanguage,
		secureCookie:    secureCookie,
	}
}

// RegisterRoutes registers the auth endpoints on the provided Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/login", h.Login)
	g.POST("/auth/logout", h.Logout)
}

type loginRequest struct {
	Token    string `json:"token"`
	Language string `json:"language"`
}

// Login stores the upstream token as a new session and sets the cookie.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	now := time.Now()
	if TokenExpired(req.Token, now) {
		return echo.NewHTTPError(http.StatusUnauthorized, "token already expired")
	}

	lang := req.Language
	if lang == "" {
		lang = h.defaultLanguage
	}

	sess := &Session{
		ID:        uuid.New(),
		Token:     req.Token,
		Language:  lang,
		CreatedAt: now,
		ExpiresAt: now.Add(h.ttl),
	}
	if err := h.store.Create(c.Request().Context(), sess); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create session")
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    sess.ID.String(),
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]string{
		"sessionId": sess.ID.String(),
		"language":  sess.Language,
	})
}

// Logout deletes the session and clears the cookie.
func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(CookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			_ = h.store.Delete(c.Request().Context(), id)
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return c.NoContent(http.StatusNoContent)
}

// GC deletes expired sessions on the given interval until ctx is done.
func GC(ctx context.Context, store Store, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("session gc")
				continue
			}
			if n > 0 {
				logger.Info().Int64("deleted", n).Msg("session gc")
			}
		}
	}
}
