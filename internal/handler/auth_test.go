package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Streamly-Media/accounts/config"
	"github.com/Streamly-Media/accounts/internal/handler"
	"github.com/Streamly-Media/accounts/internal/middleware"
	"github.com/Streamly-Media/accounts/internal/model"
	"github.com/Streamly-Media/accounts/internal/repository"
	"github.com/Streamly-Media/accounts/internal/router"
	"github.com/Streamly-Media/accounts/internal/service"
	"github.com/Streamly-Media/accounts/pkg/logger"
	redispkg "github.com/Streamly-Media/accounts/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitTestLogger()
	os.Exit(m.Run())
}

// memoryStore backs the HTTP tests without a database.
type memoryStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 1, users: make(map[uint]*model.User)}
}

func (s *memoryStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memoryStore) GetByIdentity(_ context.Context, username, email string) (*model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" && email == "" {
		return nil, gorm.ErrRecordNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memoryStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = s.nextID
	s.nextID++
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memoryStore) SetRefreshToken(_ context.Context, id uint, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.RefreshToken = token
	return nil
}

func (s *memoryStore) RotateRefreshToken(_ context.Context, id uint, oldToken, newToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.RefreshToken != oldToken {
		return repository.ErrStaleRefreshToken
	}
	u.RefreshToken = newToken
	return nil
}

func (s *memoryStore) UpdatePassword(_ context.Context, id uint, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *memoryStore) UpdateAccount(_ context.Context, id uint, fullName, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u.FullName = fullName
	u.Email = strings.ToLower(strings.TrimSpace(email))
	copied := *u
	return &copied, nil
}

func (s *memoryStore) UpdateAvatar(_ context.Context, id uint, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.AvatarURL = url
	return nil
}

func (s *memoryStore) UpdateCoverImage(_ context.Context, id uint, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.CoverImageURL = url
	return nil
}

func (s *memoryStore) ChannelProfile(_ context.Context, username string, _ uint) (*model.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return &model.ChannelProfile{ID: u.ID, Username: u.Username, FullName: u.FullName}, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memoryStore) WatchHistory(_ context.Context, _ uint) ([]model.WatchHistoryEntry, error) {
	return []model.WatchHistoryEntry{}, nil
}

var _ repository.UserStore = (*memoryStore)(nil)

type memoryMedia struct {
	mu      sync.Mutex
	counter int
}

func (m *memoryMedia) Upload(_ context.Context, _ string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	key := fmt.Sprintf("media/test/%d", m.counter)
	return "https://cdn.example.com/" + key, key, nil
}

type testEnv struct {
	router *gin.Engine
	store  *memoryStore
	svc    *service.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{
			Name:        "accounts-service",
			Environment: "test",
			Debug:       true,
			Port:        "0",
		},
		Token: config.TokenConfig{
			AccessSecret:  "access-secret-for-tests",
			RefreshSecret: "refresh-secret-for-tests",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    240 * time.Hour,
		},
		Upload: config.UploadConfig{
			TempDir:     t.TempDir(),
			MaxFileSize: 16 << 20,
		},
		RateLimit: config.RateLimitConfig{Request: 1000, Duration: 60},
		CORS:      config.CORSConfig{Origin: "http://localhost:3000"},
	}

	store := newMemoryStore()
	tokens := service.NewTokenService(cfg.Token)
	cache := service.NewProfileCache(redispkg.NewClient(redispkg.Config{Enabled: false}, zap.NewNop()))
	svc := service.NewUserService(store, tokens, &memoryMedia{}, cache)

	r := router.NewRouter(
		handler.NewAuthHandler(svc, cfg),
		handler.NewUserHandler(svc, cfg),
		handler.NewHealthHandler(nil, redispkg.NewClient(redispkg.Config{Enabled: false}, zap.NewNop())),
		middleware.NewJWTMiddleware(tokens),
		cfg,
	)

	return &testEnv{router: r.SetupRoutes(), store: store, svc: svc}
}

func seedAccount(t *testing.T, store *memoryStore, username, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test Account",
		PasswordHash: string(hash),
		AvatarURL:    "https://cdn.example.com/media/test/seed.png",
	}
	if err := store.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding account: %v", err)
	}
	return user
}

func doLogin(t *testing.T, env *testEnv, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func cookieByName(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginSetsSessionCookies(t *testing.T) {
	env := newTestEnv(t)
	seedAccount(t, env.store, "alice", "s3cret-password")

	w := doLogin(t, env, "alice", "s3cret-password")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	res := w.Result()
	for _, name := range []string{"accessToken", "refreshToken"} {
		cookie := cookieByName(res, name)
		if cookie == nil || cookie.Value == "" {
			t.Fatalf("cookie %s should be set", name)
		}
		if !cookie.HttpOnly || !cookie.Secure {
			t.Fatalf("cookie %s must be httpOnly and secure", name)
		}
	}

	var envelope struct {
		StatusCode int  `json:"statusCode"`
		Success    bool `json:"success"`
		Data       struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
			User         struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if !envelope.Success || envelope.StatusCode != http.StatusOK {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if envelope.Data.AccessToken == "" || envelope.Data.RefreshToken == "" {
		t.Fatal("tokens must also travel in the body")
	}
	if envelope.Data.User.Username != "alice" {
		t.Fatalf("unexpected user in response: %q", envelope.Data.User.Username)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	seedAccount(t, env.store, "alice", "s3cret-password")

	w := doLogin(t, env, "alice", "wrong-password")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatal("no cookies should be set on a failed login")
	}

	var envelope struct {
		Success bool     `json:"success"`
		Errors  []string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if envelope.Success {
		t.Fatal("error envelope must have success=false")
	}
	if envelope.Errors == nil {
		t.Fatal("errors must be an array, not null")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	w := doLogin(t, env, "nobody", "whatever-pass")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRefreshFromCookieRotates(t *testing.T) {
	env := newTestEnv(t)
	seedAccount(t, env.store, "alice", "s3cret-password")

	login := doLogin(t, env, "alice", "s3cret-password")
	refreshCookie := cookieByName(login.Result(), "refreshToken")
	if refreshCookie == nil {
		t.Fatal("login should set the refresh cookie")
	}

	time.Sleep(1100 * time.Millisecond)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(refreshCookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	rotated := cookieByName(w.Result(), "refreshToken")
	if rotated == nil || rotated.Value == refreshCookie.Value {
		t.Fatal("refresh must rotate the refresh cookie")
	}

	// The superseded token is rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(refreshCookie)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("replayed refresh should get 401, got %d", w.Code)
	}
}

func TestRefreshFromBody(t *testing.T) {
	env := newTestEnv(t)
	seedAccount(t, env.store, "alice", "s3cret-password")

	login := doLogin(t, env, "alice", "s3cret-password")
	var envelope struct {
		Data struct {
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding login: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"refreshToken": envelope.Data.RefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRefreshMissingToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRegisterMultipart(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("fullName", "Alice Example")
	_ = mw.WriteField("email", "alice@example.com")
	_ = mw.WriteField("username", "alice")
	_ = mw.WriteField("password", "s3cret-password")
	part, _ := mw.CreateFormFile("avatar", "avatar.png")
	_, _ = part.Write([]byte("fake image bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			Username  string `json:"username"`
			AvatarURL string `json:"avatar_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if envelope.Data.Username != "alice" || envelope.Data.AvatarURL == "" {
		t.Fatalf("unexpected register response: %+v", envelope.Data)
	}
}

func TestRegisterMissingAvatar(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("fullName", "Alice Example")
	_ = mw.WriteField("email", "alice@example.com")
	_ = mw.WriteField("username", "alice")
	_ = mw.WriteField("password", "s3cret-password")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("fullName", "Alice Example")
	_ = mw.WriteField("email", "not-an-email")
	_ = mw.WriteField("username", "alice")
	_ = mw.WriteField("password", "s3cret-password")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestProtectedRouteWithBearerToken(t *testing.T) {
	env := newTestEnv(t)
	seedAccount(t, env.store, "alice", "s3cret-password")

	login := doLogin(t, env, "alice", "s3cret-password")
	var envelope struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer "+envelope.Data.AccessToken)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var current struct {
		Data struct {
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &current); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if current.Data.Username != "alice" {
		t.Fatalf("expected alice, got %q", current.Data.Username)
	}
}

func TestLogoutClearsCookies(t *testing.T) {
	env := newTestEnv(t)
	seedAccount(t, env.store, "alice", "s3cret-password")

	login := doLogin(t, env, "alice", "s3cret-password")
	accessCookie := cookieByName(login.Result(), "accessToken")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.AddCookie(accessCookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, name := range []string{"accessToken", "refreshToken"} {
		cookie := cookieByName(w.Result(), name)
		if cookie == nil || cookie.Value != "" || cookie.MaxAge >= 0 {
			t.Fatalf("cookie %s should be cleared on logout", name)
		}
	}
}
