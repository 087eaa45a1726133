package handler_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"inkpost/internal/handler"
	"inkpost/internal/kvstore"
	"inkpost/internal/middleware"
	"inkpost/internal/repo"
	"inkpost/internal/service"
	"inkpost/internal/testutil"
)

const testAnonymousID = "a0000000000000000000000000000000"

var codePattern = regexp.MustCompile(`\d{6}`)

type captureSender struct {
	lastBody string
	fail     bool
}

func (s *captureSender) Send(to, subject, body string) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.lastBody = body
	return nil
}

func (s *captureSender) lastCode() string {
	return codePattern.FindString(s.lastBody)
}

type fixture struct {
	router  http.Handler
	sender  *captureSender
	store   *kvstore.MemoryStore
	cleanup func()
}

func setupRouter(t *testing.T) *fixture {
	return setupRouterWithLimits(t, handler.RateLimits{})
}

func setupRouterWithLimits(t *testing.T, limits handler.RateLimits) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	store := kvstore.NewMemoryStore()
	sender := &captureSender{}

	userRepo := repo.NewUserRepo(db)
	blogRepo := repo.NewBlogRepo(db)

	jwtSecret := []byte("test-secret")
	otpService := service.NewOTPService(store, sender)
	authService := service.NewAuthService(userRepo, otpService, jwtSecret, time.Hour)
	blogService := service.NewBlogService(blogRepo, testAnonymousID)
	publicService := service.NewPublicService(blogRepo, userRepo, testAnonymousID)

	deps := handler.RouterDeps{
		Auth:       handler.NewAuthHandler(authService, false),
		OTP:        handler.NewOTPHandler(otpService),
		Blogs:      handler.NewBlogHandler(blogService),
		Public:     handler.NewPublicHandler(publicService),
		JWTSecret:  jwtSecret,
		RateLimits: limits,
	}

	engine, err := webapi.NewEngine(
		"/api",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return &fixture{router: engine, sender: sender, store: store, cleanup: cleanup}
}

func (f *fixture) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *fixture) markVerified(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, f.store.SetEx(context.Background(), "email_verified:"+email, "true", 300*time.Second))
}

func (f *fixture) registerAndLogin(t *testing.T, name, email, pass string) *http.Cookie {
	t.Helper()
	f.markVerified(t, email)
	resp := f.do(http.MethodPost, "/api/auth/register", map[string]string{"name": name, "email": email, "password": pass})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = f.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": pass})
	require.Equal(t, http.StatusOK, resp.Code)
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == middleware.CookieName {
			require.True(t, cookie.HttpOnly)
			return cookie
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func uniqueEmail(prefix string) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s-%s@example.com", prefix, hex.EncodeToString(buf))
}

func blogID(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var parsed struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &parsed))
	require.NotEmpty(t, parsed.Data.ID)
	return parsed.Data.ID
}

func TestOTPAndRegistrationFlow(t *testing.T) {
	f := setupRouter(t)
	defer f.cleanup()
	email := uniqueEmail("flow")

	// registration before verification is rejected
	resp := f.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Ada", "email": email, "password": "secret"})
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.do(http.MethodPost, "/api/auth/send-otp", map[string]string{"email": email})
	require.Equal(t, http.StatusOK, resp.Code)
	code := f.sender.lastCode()
	require.Len(t, code, 6)

	// resend hits the cooldown
	resp = f.do(http.MethodPost, "/api/auth/send-otp", map[string]string{"email": email})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	resp = f.do(http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": email, "otp": wrong})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": email, "otp": code})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Ada", "email": email, "password": "secret"})
	require.Equal(t, http.StatusCreated, resp.Code)

	// the flag was consumed, a second registration needs a fresh one
	resp = f.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Eve", "email": email, "password": "other"})
	require.Equal(t, http.StatusForbidden, resp.Code)

	// and with a fresh flag the unique email constraint rejects it
	f.markVerified(t, email)
	resp = f.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Eve", "email": email, "password": "other"})
	require.Equal(t, http.StatusConflict, resp.Code)

	resp = f.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "wrong"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Empty(t, resp.Result().Cookies())

	resp = f.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "secret"})
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	f := setupRouter(t)
	defer f.cleanup()
	email := uniqueEmail("reset")
	f.registerAndLogin(t, "Bob", email, "oldpass")

	resp := f.do(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": email, "newPassword": "newpass"})
	require.Equal(t, http.StatusForbidden, resp.Code)

	f.markVerified(t, email)
	resp = f.do(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": email, "newPassword": "newpass"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "oldpass"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	resp = f.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "newpass"})
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestBlogLifecycleOverHTTP(t *testing.T) {
	f := setupRouter(t)
	defer f.cleanup()
	cookie := f.registerAndLogin(t, "Ada", uniqueEmail("author"), "secret")

	// no cookie: 401
	resp := f.do(http.MethodPost, "/api/blog/draft", map[string]string{"title": "T", "content": "C"})
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	// anonymous draft forbidden
	resp = f.do(http.MethodPost, "/api/blog/draft?anon=true", map[string]string{"title": "T", "content": "C"}, cookie)
	require.Equal(t, http.StatusForbidden, resp.Code)

	// tombstone content rejected
	resp = f.do(http.MethodPost, "/api/blog/draft", map[string]string{"title": "[Deleted Blog]", "content": "C"}, cookie)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(http.MethodPost, "/api/blog/draft", map[string]string{"title": "T", "content": "C"}, cookie)
	require.Equal(t, http.StatusCreated, resp.Code)
	id := blogID(t, resp)

	// invalid state in path
	resp = f.do(http.MethodGet, "/api/blog/archived", nil, cookie)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(http.MethodGet, "/api/blog/draft/"+id, nil, cookie)
	require.Equal(t, http.StatusOK, resp.Code)

	// not public while draft
	resp = f.do(http.MethodGet, "/api/public/"+id, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = f.do(http.MethodPost, "/api/blog/publish/"+id+"?anon=false", nil, cookie)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(http.MethodGet, "/api/public/"+id, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var pub struct {
		Data struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Author  struct {
				Name string `json:"name"`
			} `json:"author"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &pub))
	require.Equal(t, "T", pub.Data.Title)
	require.Equal(t, "C", pub.Data.Content)
	require.Equal(t, "Ada", pub.Data.Author.Name)

	// delete published: tombstoned, still publicly visible
	resp = f.do(http.MethodDelete, "/api/blog/published/"+id, nil, cookie)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = f.do(http.MethodGet, "/api/public/"+id, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &pub))
	require.Equal(t, "[Deleted Blog]", pub.Data.Title)
	require.Equal(t, "This blog has been deleted", pub.Data.Content)
}

func TestAnonymousPublishOverHTTP(t *testing.T) {
	f := setupRouter(t)
	defer f.cleanup()
	cookie := f.registerAndLogin(t, "Carol", uniqueEmail("anon"), "secret")

	resp := f.do(http.MethodPost, "/api/blog/draft", map[string]string{"title": "T", "content": "C"}, cookie)
	require.Equal(t, http.StatusCreated, resp.Code)
	id := blogID(t, resp)

	resp = f.do(http.MethodPost, "/api/blog/publish/"+id+"?anon=true", nil, cookie)
	require.Equal(t, http.StatusOK, resp.Code)

	// ownership is gone for the original author
	resp = f.do(http.MethodPut, "/api/blog/published/"+id, map[string]string{"title": "X", "content": "Y"}, cookie)
	require.Equal(t, http.StatusForbidden, resp.Code)
	resp = f.do(http.MethodDelete, "/api/blog/published/"+id, nil, cookie)
	require.Equal(t, http.StatusForbidden, resp.Code)

	// the public projection hides the author
	resp = f.do(http.MethodGet, "/api/public/"+id, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var pub struct {
		Data struct {
			Author struct {
				Name string `json:"name"`
			} `json:"author"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &pub))
	require.Equal(t, "Anonymous", pub.Data.Author.Name)
}

func TestLoginRateLimitOverHTTP(t *testing.T) {
	f := setupRouterWithLimits(t, handler.RateLimits{
		Login: middleware.RateLimitRule{Window: time.Minute, Max: 2},
	})
	defer f.cleanup()

	body := map[string]string{"email": uniqueEmail("limited"), "password": "nope"}
	resp := f.do(http.MethodPost, "/api/auth/login", body)
	require.Equal(t, http.StatusNotFound, resp.Code)
	resp = f.do(http.MethodPost, "/api/auth/login", body)
	require.Equal(t, http.StatusNotFound, resp.Code)

	// third attempt inside the window is cut off before the handler
	resp = f.do(http.MethodPost, "/api/auth/login", body)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)

	// unlimited routes are unaffected
	resp = f.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.Code)
}
