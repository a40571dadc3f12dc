package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/krishibandhu/krishibandhu-backend/internal/config"
	"github.com/krishibandhu/krishibandhu-backend/internal/middleware"
	"github.com/krishibandhu/krishibandhu-backend/internal/model"
	"github.com/krishibandhu/krishibandhu-backend/internal/repository"
	"github.com/krishibandhu/krishibandhu-backend/internal/utils"
)

// UserStore is the credential store as seen by the auth handlers.
// *repository.UserRepo satisfies it; tests substitute an in-memory
// implementation.
type UserStore interface {
	Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error)
	FindByIdentifier(ctx context.Context, identifier string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is the token table as seen by the auth handlers.
type TokenStore interface {
	ReplacePair(ctx context.Context, userID uint64, access, refresh model.Token) error
	FindByValue(ctx context.Context, value, kind string) (model.Token, error)
	DeleteAllForUser(ctx context.Context, userID uint64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
	State    string `json:"state"`
	District string `json:"district"`
	Location string `json:"location"`
	Language string `json:"language"`
}
type loginReq struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResp struct {
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	TokenType      string    `json:"token_type"`
	AccessExpires  time.Time `json:"access_expires"`
	RefreshExpires time.Time `json:"refresh_expires"`
}

// Signup: create user. Unlike login, no tokens are issued here; the
// client logs in afterwards.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Phone == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/phone/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := model.User{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Role:     model.RoleFarmer,
		State:    req.State,
		District: req.District,
		Location: req.Location,
		Language: req.Language,
	}
	if _, err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		switch {
		case errors.Is(err, repository.ErrPhoneExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone already registered"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"msg": "user created successfully"})
}

// Login: verify credentials and return a fresh pair. Issuing the
// pair deletes every prior token of the user, so logging in on a new
// device ends the session on the old one. Unknown identifier and
// wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identifier/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.issuePair(c, ctx, u.ID)
}

// Refresh: exchange a live refresh token for a brand-new pair. The
// old pair (and any other token of the user, wherever issued) is
// invalidated by the same delete-then-insert as login.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tok, err := h.Tokens.FindByValue(ctx, raw, model.TokenKindRefresh)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}
	if tok.Expired(time.Now().UTC()) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	return h.issuePair(c, ctx, tok.UserID)
}

// issuePair mints and atomically stores a new access/refresh pair
// for the user, replacing all existing tokens.
func (h *AuthHandler) issuePair(c echo.Context, ctx context.Context, userID uint64) error {
	access, refresh, err := utils.NewTokenPair(userID, h.Cfg.AccessTTLMin, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	if err := h.Tokens.ReplacePair(ctx, userID, access, refresh); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save tokens failed"})
	}
	return c.JSON(http.StatusOK, tokenPairResp{
		AccessToken:    access.Value,
		RefreshToken:   refresh.Value,
		TokenType:      "bearer",
		AccessExpires:  access.ExpiresAt,
		RefreshExpires: refresh.ExpiresAt,
	})
}

// Logout: delete all tokens of the authenticated user (protected).
func (h *AuthHandler) Logout(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.DeleteAllForUser(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// SweepTokens removes expired token rows on demand (admin only).
// The periodic sweeper does the same on a timer; this endpoint is
// for operators who disabled it.
func (h *AuthHandler) SweepTokens(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	n, err := h.Tokens.DeleteExpired(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": n})
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": u.ID,
		"phone":   u.Phone,
		"role":    u.Role,
	})
}
