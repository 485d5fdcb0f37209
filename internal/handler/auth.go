package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/reelclub/movienight/internal/config"
	"github.com/reelclub/movienight/internal/repository"
	"github.com/reelclub/movienight/internal/utils"
)

// AuthHandler bundles dependencies for the sign-up / sign-in endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Groups   GroupStore
	Sessions SessionStore
	Log      *logrus.Logger
}

func NewAuthHandler(cfg config.Config, g GroupStore, s SessionStore, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Groups: g, Sessions: s, Log: log}
}

// ----- DTOs -----

type signupReq struct {
	Handle     string `json:"handle"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	BetaKey    string `json:"beta_key"`
	SecretWord string `json:"secret_word"` // optional; gates public roster writes
}
type signinReq struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type sessionPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// groupPart holds only the fields safe to echo back: never the password
// hash or the beta key.
type groupPart struct {
	ID     uint64 `json:"id"`
	Handle string `json:"handle"`
	Name   string `json:"name"`
}
type authResp struct {
	Group   groupPart   `json:"group"`
	Session sessionPart `json:"session"`
}

// Signup creates a group and signs it in immediately. The beta key must
// exist; whether some other group already used it is NOT checked here,
// matching the separate in-use report on the validation endpoint.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	handle := repository.NormalizeHandle(req.Handle)
	name := strings.TrimSpace(req.Name)
	if handle == "" || name == "" || req.Password == "" || strings.TrimSpace(req.BetaKey) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "handle, name, password and beta_key required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Groups.BetaKeyExists(ctx, strings.TrimSpace(req.BetaKey))
	if err != nil {
		h.Log.WithError(err).Error("beta key lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid beta key"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		h.Log.WithError(err).Error("password hash failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	var secret *string
	if s := strings.TrimSpace(req.SecretWord); s != "" {
		secret = &s
	}

	gid, err := h.Groups.Create(ctx, handle, name, hash, strings.TrimSpace(req.BetaKey), secret)
	if err != nil {
		if err == repository.ErrHandleTaken {
			return c.JSON(http.StatusConflict, echo.Map{"error": "handle already taken"})
		}
		h.Log.WithError(err).Error("create group failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	sess, err := h.Sessions.IssueOrExtend(ctx, gid, h.sessionTTL())
	if err != nil {
		h.Log.WithError(err).Error("issue session failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	return c.JSON(http.StatusCreated, authResp{
		Group:   groupPart{ID: gid, Handle: handle, Name: name},
		Session: sessionPart{Token: sess.Token, Expires: sess.ExpiresAt},
	})
}

// Signin verifies handle + password and reuses/extends the group's session.
// Unknown handle and wrong password collapse to one message so the response
// never reveals whether a handle exists.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	handle := repository.NormalizeHandle(req.Handle)
	if handle == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "handle and password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Groups.GetByHandle(ctx, handle)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid handle or password"})
		}
		h.Log.WithError(err).Error("group lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign-in failed"})
	}
	if !utils.VerifyPassword(g.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid handle or password"})
	}

	sess, err := h.Sessions.IssueOrExtend(ctx, g.ID, h.sessionTTL())
	if err != nil {
		h.Log.WithError(err).Error("issue session failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign-in failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		Group:   groupPart{ID: g.ID, Handle: g.Handle, Name: g.DisplayName},
		Session: sessionPart{Token: sess.Token, Expires: sess.ExpiresAt},
	})
}

// CheckBetaKey reports whether an invitation key exists and whether some
// group already signed up with it. Signup itself only requires existence,
// so a key can be reused; in_use lets the frontend warn about that.
func (h *AuthHandler) CheckBetaKey(c echo.Context) error {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "key required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Groups.BetaKeyExists(ctx, key)
	if err != nil {
		h.Log.WithError(err).Error("beta key lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	inUse := false
	if exists {
		inUse, err = h.Groups.BetaKeyInUse(ctx, key)
		if err != nil {
			h.Log.WithError(err).Error("beta key usage lookup failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": exists, "in_use": inUse})
}

func (h *AuthHandler) sessionTTL() time.Duration {
	return time.Duration(h.Cfg.SessionTTLHours) * time.Hour
}
