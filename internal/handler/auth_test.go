package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/krishibandhu/krishibandhu-backend/internal/config"
	"github.com/krishibandhu/krishibandhu-backend/internal/handler"
	"github.com/krishibandhu/krishibandhu-backend/internal/middleware"
	"github.com/krishibandhu/krishibandhu-backend/internal/model"
	"github.com/krishibandhu/krishibandhu-backend/internal/repository"
	"github.com/krishibandhu/krishibandhu-backend/internal/utils"
)

// memStore is an in-memory stand-in for the user and token
// repositories. It mirrors their observable behaviour, including the
// delete-then-insert pair replacement.
type memStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
	tokens map[string]model.Token
}

func newMemStore() *memStore {
	return &memStore{users: map[uint64]model.User{}, tokens: map[string]model.Token{}}
}

func (s *memStore) Create(_ context.Context, u *model.User, password string, cost int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if ex.Phone == u.Phone {
			return 0, repository.ErrPhoneExists
		}
		if u.Email != "" && ex.Email == u.Email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	s.nextID++
	u.ID = s.nextID
	u.PasswordHash = hash
	s.users[u.ID] = *u
	return u.ID, nil
}

func (s *memStore) FindByIdentifier(_ context.Context, identifier string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == identifier || (u.Email != "" && u.Email == strings.ToLower(identifier)) {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *memStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *memStore) ReplacePair(_ context.Context, userID uint64, access, refresh model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for v, t := range s.tokens {
		if t.UserID == userID {
			delete(s.tokens, v)
		}
	}
	s.tokens[access.Value] = access
	s.tokens[refresh.Value] = refresh
	return nil
}

func (s *memStore) FindByValue(_ context.Context, value, kind string) (model.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[value]
	if !ok || t.Kind != kind {
		return model.Token{}, repository.ErrTokenInvalid
	}
	return t, nil
}

func (s *memStore) DeleteAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for v, t := range s.tokens {
		if t.UserID == userID {
			delete(s.tokens, v)
		}
	}
	return nil
}

func (s *memStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now().UTC()
	for v, t := range s.tokens {
		if t.Expired(now) {
			delete(s.tokens, v)
			n++
		}
	}
	return n, nil
}

// expireToken rewinds a stored token's expiry so the verifier sees it
// as stale.
func (s *memStore) expireToken(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tokens[value]
	t.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	s.tokens[value] = t
}

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func newTestServer(t *testing.T) (*echo.Echo, *memStore) {
	t.Helper()
	st := newMemStore()
	cfg := config.Config{AccessTTLMin: 30, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
	h := handler.NewAuthHandler(cfg, st, st)
	authn := middleware.BearerAuth(st, st)

	e := echo.New()
	e.POST("/auth/signup", h.Signup)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.POST("/auth/logout", h.Logout, authn)
	e.GET("/auth/me", h.Me, authn)
	return e, st
}

func doJSON(e *echo.Echo, method, path string, body map[string]any, bearer string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type pairResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func signupAndLogin(t *testing.T, e *echo.Echo, phone, password string) pairResp {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/auth/signup", map[string]any{
		"name": "Ravi", "phone": phone, "password": password,
		"state": "Karnataka", "district": "Mysuru", "location": "Mysuru", "language": "kn",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/auth/login", map[string]any{
		"identifier": phone, "password": password,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var p pairResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestSignupThenLoginReturnsPair(t *testing.T) {
	e, _ := newTestServer(t)
	p := signupAndLogin(t, e, "9000000001", "monsoon-rice")

	assert.Equal(t, "bearer", p.TokenType)
	assert.GreaterOrEqual(t, len(p.AccessToken), 32)
	assert.GreaterOrEqual(t, len(p.RefreshToken), 32)
	assert.NotEqual(t, p.AccessToken, p.RefreshToken)

	// Access token works against a protected route.
	rec := doJSON(e, http.MethodGet, "/auth/me", nil, p.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginByEmail(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/auth/signup", map[string]any{
		"name": "Ravi", "phone": "9000000002", "email": "Ravi@Example.com", "password": "pw12345",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/login", map[string]any{
		"identifier": "ravi@example.com", "password": "pw12345",
	}, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	e, _ := newTestServer(t)
	signupAndLogin(t, e, "9000000003", "correct-horse")

	wrongPw := doJSON(e, http.MethodPost, "/auth/login", map[string]any{
		"identifier": "9000000003", "password": "wrong-horse",
	}, "")
	noUser := doJSON(e, http.MethodPost, "/auth/login", map[string]any{
		"identifier": "9999999999", "password": "correct-horse",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, noUser.Code)
	assert.JSONEq(t, wrongPw.Body.String(), noUser.Body.String())
}

func TestRefreshRotatesPairAndRevokesOld(t *testing.T) {
	e, _ := newTestServer(t)
	p1 := signupAndLogin(t, e, "9000000004", "pw12345")

	rec := doJSON(e, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": p1.RefreshToken,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p2 pairResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p2))

	assert.NotEqual(t, p1.AccessToken, p2.AccessToken)
	assert.NotEqual(t, p1.RefreshToken, p2.RefreshToken)

	// The old pair is fully revoked.
	rec = doJSON(e, http.MethodGet, "/auth/me", nil, p1.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(e, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": p1.RefreshToken,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The new pair works.
	rec = doJSON(e, http.MethodGet, "/auth/me", nil, p2.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshTokenRejectedByVerifier(t *testing.T) {
	e, _ := newTestServer(t)
	p := signupAndLogin(t, e, "9000000005", "pw12345")

	rec := doJSON(e, http.MethodGet, "/auth/me", nil, p.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessTokenRejectedByRefreshFlow(t *testing.T) {
	e, _ := newTestServer(t)
	p := signupAndLogin(t, e, "9000000006", "pw12345")

	rec := doJSON(e, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": p.AccessToken,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	e, st := newTestServer(t)
	p := signupAndLogin(t, e, "9000000007", "pw12345")

	st.expireToken(p.AccessToken)
	rec := doJSON(e, http.MethodGet, "/auth/me", nil, p.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredRefreshTokenRejected(t *testing.T) {
	e, st := newTestServer(t)
	p := signupAndLogin(t, e, "9000000008", "pw12345")

	st.expireToken(p.RefreshToken)
	rec := doJSON(e, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": p.RefreshToken,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecondLoginInvalidatesFirstSession(t *testing.T) {
	e, _ := newTestServer(t)
	p1 := signupAndLogin(t, e, "9000000009", "pw12345")

	rec := doJSON(e, http.MethodPost, "/auth/login", map[string]any{
		"identifier": "9000000009", "password": "pw12345",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p2 pairResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p2))

	// Device A's tokens are dead after device B logs in.
	rec = doJSON(e, http.MethodGet, "/auth/me", nil, p1.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(e, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": p1.RefreshToken,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/auth/me", nil, p2.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDuplicatePhoneSignupRejectedWithoutNewRow(t *testing.T) {
	e, st := newTestServer(t)
	signupAndLogin(t, e, "9000000010", "pw12345")
	before := st.userCount()

	rec := doJSON(e, http.MethodPost, "/auth/signup", map[string]any{
		"name": "Someone Else", "phone": "9000000010", "password": "other-pw",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "phone")
	assert.Equal(t, before, st.userCount())
}

func TestDuplicateEmailSignupRejected(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/auth/signup", map[string]any{
		"name": "A", "phone": "9000000011", "email": "same@example.com", "password": "pw12345",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/signup", map[string]any{
		"name": "B", "phone": "9000000012", "email": "same@example.com", "password": "pw12345",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")
}

func TestLogoutDeletesAllTokens(t *testing.T) {
	e, _ := newTestServer(t)
	p := signupAndLogin(t, e, "9000000013", "pw12345")

	rec := doJSON(e, http.MethodPost, "/auth/logout", nil, p.AccessToken)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/auth/me", nil, p.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(e, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": p.RefreshToken,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
