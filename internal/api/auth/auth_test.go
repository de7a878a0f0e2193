package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasknest/internal/api/middleware"
	"tasknest/internal/model"
	"tasknest/internal/pkg/revoke"
	"tasknest/internal/pkg/token"
	"tasknest/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type mockUserStore struct {
	createUserFunc  func(ctx context.Context, u *model.User) error
	userByEmailFunc func(ctx context.Context, email string) (*model.User, error)
	createCalls     int
}

func (m *mockUserStore) CreateUser(ctx context.Context, u *model.User) error {
	m.createCalls++
	return m.createUserFunc(ctx, u)
}

func (m *mockUserStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.userByEmailFunc(ctx, email)
}

func newTestHandler(users UserStore) (*Handler, *token.Service) {
	gin.SetMode(gin.TestMode)
	tokens := token.NewService("test_secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(users, tokens, revoke.NewStore(nil), logger), tokens
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_Normal(t *testing.T) {
	var created *model.User
	users := &mockUserStore{
		createUserFunc: func(ctx context.Context, u *model.User) error {
			created = u
			return nil
		},
	}
	h, _ := newTestHandler(users)
	r := gin.New()
	r.POST("/register", h.Register)

	w := postJSON(t, r, "/register", map[string]string{
		"name":     "Alice",
		"email":    "Alice@Example.com",
		"password": "secret123",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if created == nil {
		t.Fatalf("expected user to be created")
	}
	if created.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %s", created.Email)
	}
	if created.Password == "secret123" {
		t.Fatalf("expected hashed password in store")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("secret123")); err != nil {
		t.Fatalf("expected valid bcrypt hash: %v", err)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("secret123")) || bytes.Contains(w.Body.Bytes(), []byte(created.Password)) {
		t.Fatalf("password leaked in response: %s", w.Body.String())
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &mockUserStore{
		createUserFunc: func(ctx context.Context, u *model.User) error {
			return store.ErrDuplicateEmail
		},
	}
	h, _ := newTestHandler(users)
	r := gin.New()
	r.POST("/register", h.Register)

	w := postJSON(t, r, "/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	users := &mockUserStore{
		createUserFunc: func(ctx context.Context, u *model.User) error { return nil },
	}
	h, _ := newTestHandler(users)
	r := gin.New()
	r.POST("/register", h.Register)

	w := postJSON(t, r, "/register", map[string]string{
		"name":     "Alice",
		"email":    "not-an-email",
		"password": "secret123",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if users.createCalls != 0 {
		t.Fatalf("expected no create on invalid email")
	}
}

func TestLogin_Normal(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	userID := primitive.NewObjectID()
	users := &mockUserStore{
		userByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: userID, Email: email, Password: string(hash)}, nil
		},
	}
	h, tokens := newTestHandler(users)
	r := gin.New()
	r.POST("/login", h.Login)

	w := postJSON(t, r, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	claims, err := tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Subject != userID.Hex() {
		t.Fatalf("expected subject %s, got %s", userID.Hex(), claims.Subject)
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("expected email claim, got %s", claims.Email)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	users := &mockUserStore{
		userByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: primitive.NewObjectID(), Email: email, Password: string(hash)}, nil
		},
	}
	h, _ := newTestHandler(users)
	r := gin.New()
	r.POST("/login", h.Login)

	w := postJSON(t, r, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := &mockUserStore{
		userByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return nil, store.ErrNotFound
		},
	}
	h, _ := newTestHandler(users)
	r := gin.New()
	r.POST("/login", h.Login)

	w := postJSON(t, r, "/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "secret123",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer s.Close()
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gin.SetMode(gin.TestMode)
	tokens := token.NewService("test_secret", time.Hour)
	revoked := revoke.NewStore(rdb)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(&mockUserStore{}, tokens, revoked, logger)

	tok, err := tokens.Issue(primitive.NewObjectID().Hex(), "alice@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	r := gin.New()
	r.POST("/logout", func(c *gin.Context) {
		c.Set(middleware.CtxToken, tok)
		c.Set(middleware.CtxTokenExpiresAt, time.Now().Add(time.Hour))
		h.Logout(c)
	})

	w := postJSON(t, r, "/logout", map[string]string{})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	rev, err := revoked.IsRevoked(context.Background(), tok)
	if err != nil {
		t.Fatalf("check revoked: %v", err)
	}
	if !rev {
		t.Fatalf("expected token to be revoked after logout")
	}
}
