package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SergeiKhy/linkpulse/internal/config"
	"github.com/SergeiKhy/linkpulse/internal/enrichment"
	"github.com/SergeiKhy/linkpulse/internal/handler"
	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/service"
	"github.com/SergeiKhy/linkpulse/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

type testEnv struct {
	router     *gin.Engine
	links      *mocks.MockLinkRepository
	clicks     *mocks.MockClickRepository
	processor  service.ClickProcessor
	userToken  string
	adminToken string
	userID     int64
}

func setupTestEnv(t *testing.T, fallbackURL string, deps map[string]handler.Pinger) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	env := &testEnv{
		links:  mocks.NewMockLinkRepository(),
		clicks: mocks.NewMockClickRepository(),
	}

	linkSvc := service.NewLinkService(env.links, env.clicks, mocks.NewMockCacheRepository(), time.Hour, logger)
	recorder := service.NewClickRecorder(env.clicks, &mocks.MockGeoLocator{}, enrichment.NewUserAgentParser(), time.Second, logger)
	// воркеры не запущены: события остаются в буфере и видны через ChannelStats
	env.processor = service.NewClickProcessor(recorder, config.ClicksConfig{Workers: 1, BufferSize: 10}, logger)

	authSvc := service.NewAuthService(mocks.NewMockUserRepository(), config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Hour}, logger)
	analyticsSvc := service.NewAnalyticsService(mocks.NewMockAnalyticsRepository(), time.UTC, nil, logger)
	insightSvc := service.NewInsightService(env.clicks, nil)
	adminSvc := service.NewAdminService(&mocks.MockAdminRepository{Links: 3, ClickTotal: 7})
	reviewSvc := service.NewReviewService(mocks.NewMockReviewRepository())

	ctx := context.Background()
	user, err := authSvc.Register(ctx, &models.RegisterInput{Email: "user@example.com", Password: "password123", Name: "User"})
	require.NoError(t, err)
	env.userToken = user.AccessToken
	env.userID = user.User.ID

	_, err = authSvc.CreateAdmin(ctx, "admin@example.com", "Admin", "password123")
	require.NoError(t, err)
	admin, err := authSvc.Login(ctx, &models.LoginInput{Email: "admin@example.com", Password: "password123"})
	require.NoError(t, err)
	env.adminToken = admin.AccessToken

	if deps == nil {
		deps = map[string]handler.Pinger{"postgres": pinger{}}
	}

	env.router = handler.NewRouter(handler.Handlers{
		Link:      handler.NewLinkHandler(linkSvc, env.processor, "http://sho.rt", fallbackURL, logger),
		Analytics: handler.NewAnalyticsHandler(analyticsSvc, insightSvc, logger),
		Auth:      handler.NewAuthHandler(authSvc, config.AuthConfig{}, false, logger),
		Admin:     handler.NewAdminHandler(adminSvc, reviewSvc, logger),
		Health:    handler.NewHealthHandler(deps, logger),
	}, authSvc, handler.RateLimiters{}, logger)

	return env
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) createLink(t *testing.T, body map[string]any) handler.LinkResponse {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/links", e.userToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[handler.LinkResponse](t, w)
}

// TestHealthCheck проверяет endpoint проверки здоровья
func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t, "", nil)

	w := env.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "linkpulse", resp["service"])

	down := setupTestEnv(t, "", map[string]handler.Pinger{"redis": pinger{err: errors.New("down")}})
	w = down.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unavailable"`)
}

func TestAuthEndpoints(t *testing.T) {
	env := setupTestEnv(t, "", nil)

	w := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "password123", "name": "New",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tokens := decode[models.AuthTokens](t, w)
	assert.NotEmpty(t, tokens.AccessToken)

	// повторная регистрация
	w = env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "password123", "name": "New",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decode[handler.ErrorResponse](t, w).Error)

	w = env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "new@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/v1/users/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new@example.com", decode[models.User](t, w).Email)

	// Google не настроен
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/v1/auth/google", "", nil).Code)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/v1/users/me", "", nil).Code)
}

// TestCreateLink проверяет создание ссылки и ошибки валидации
func TestCreateLink(t *testing.T) {
	env := setupTestEnv(t, "", nil)

	link := env.createLink(t, map[string]any{
		"original_url": "https://example.com/page",
		"tags":         []string{"go", "web"},
		"utm":          map[string]string{"source": "newsletter"},
	})
	assert.Len(t, link.ShortCode, 8)
	assert.Equal(t, "http://sho.rt/"+link.ShortCode, link.ShortURL)
	assert.Equal(t, models.LinkTypeBenign, link.Type)
	assert.Equal(t, []string{"go", "web"}, link.Tags)

	t.Run("занятый код", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/links", env.userToken, map[string]any{
			"original_url": "https://example.com/other",
			"short_code":   link.ShortCode,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "conflict", decode[handler.ErrorResponse](t, w).Error)
	})

	t.Run("не http", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/links", env.userToken, map[string]any{"original_url": "ftp://example.com/file"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_argument", decode[handler.ErrorResponse](t, w).Error)
	})

	t.Run("без URL", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/links", env.userToken, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", decode[handler.ErrorResponse](t, w).Error)
	})

	t.Run("без токена", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/links", "", map[string]any{"original_url": "https://example.com"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// TestRedirect проверяет редирект и постановку клика в очередь
func TestRedirect(t *testing.T) {
	env := setupTestEnv(t, "", nil)
	link := env.createLink(t, map[string]any{"original_url": "https://example.com/target"})

	w := env.do(http.MethodGet, "/"+link.ShortCode, "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://example.com/target", w.Header().Get("Location"))
	assert.Equal(t, 1, env.processor.ChannelStats().BufferUsed)

	w = env.do(http.MethodGet, "/unknown1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, env.processor.ChannelStats().BufferUsed, "неудачный редирект не пишет клик")

	w = env.do(http.MethodDelete, "/api/v1/links/"+itoa(link.ID), env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/"+link.ShortCode, "", nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, 1, env.processor.ChannelStats().BufferUsed)
}

func TestRedirect_Fallback(t *testing.T) {
	env := setupTestEnv(t, "https://example.com/not-found", nil)

	w := env.do(http.MethodGet, "/missing1", "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/not-found", w.Header().Get("Location"))
	assert.Equal(t, 0, env.processor.ChannelStats().BufferUsed)
}

// TestLinkLifecycle: чтение, обновление тегов, архив, UTM, права
func TestLinkLifecycle(t *testing.T) {
	env := setupTestEnv(t, "", nil)
	link := env.createLink(t, map[string]any{
		"original_url": "https://example.com",
		"tags":         []string{"a", "b"},
		"utm":          map[string]string{"campaign": "spring"},
	})
	path := "/api/v1/links/" + itoa(link.ID)

	w := env.do(http.MethodGet, path, env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// чужая ссылка
	w = env.do(http.MethodGet, path, env.adminToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode[handler.ErrorResponse](t, w).Error)

	w = env.do(http.MethodPatch, path, env.userToken, map[string]any{"tags": []string{"b", "c"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.ElementsMatch(t, []string{"b", "c"}, decode[handler.LinkResponse](t, w).Tags)

	w = env.do(http.MethodDelete, path+"/utm", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodDelete, path+"/utm", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, path+"/unarchive", env.userToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(http.MethodPost, path+"/archive", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode[handler.LinkResponse](t, w).DeletedAt)
	w = env.do(http.MethodPost, path+"/archive", env.userToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, path+"/restore", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, path+"/stats", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, link.ShortCode, decode[models.LinkStats](t, w).ShortCode)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/links/abc", env.userToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/v1/links/9999", env.userToken, nil).Code)
}

func TestListLinks(t *testing.T) {
	env := setupTestEnv(t, "", nil)
	env.createLink(t, map[string]any{"original_url": "https://example.com/1", "tags": []string{"x"}})
	env.createLink(t, map[string]any{"original_url": "https://example.com/2"})

	w := env.do(http.MethodGet, "/api/v1/links?page=1&limit=1", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	own := decode[map[string]any](t, w)
	assert.Equal(t, float64(2), own["total"])
	assert.Equal(t, float64(2), own["total_pages"])
	assert.Equal(t, []any{"x"}, own["tags"])

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/links?page=0", env.userToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/links?deleted=maybe", env.userToken, nil).Code)

	// только для админа
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/v1/links/all", env.userToken, nil).Code)

	w = env.do(http.MethodGet, "/api/v1/links/all", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["total"])
}

// TestAnalyticsAndClicks проверяет формы ответов /analytics и /clicks
func TestAnalyticsAndClicks(t *testing.T) {
	env := setupTestEnv(t, "", nil)
	env.clicks.Rows = []models.ClickRow{
		{ShortCode: "abc", Timestamp: time.Now().Add(-time.Hour), City: "Oslo", Browser: "Chrome"},
	}

	w := env.do(http.MethodGet, "/api/v1/analytics", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[map[string]any](t, w)
	for _, key := range []string{"topLinks", "neverClickedLinks", "links", "tags", "type"} {
		assert.Contains(t, summary, key)
	}

	w = env.do(http.MethodGet, "/api/v1/clicks?filter=24h", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	insight := decode[models.ClickInsight](t, w)
	assert.Equal(t, int64(1), insight.Click.TotalClick)
	assert.Equal(t, int64(1), insight.Interaction.Location["Oslo"])
	assert.Equal(t, env.userID, env.clicks.LastQuery.UserID)

	w = env.do(http.MethodGet, "/api/v1/clicks?filter=3%20days", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_argument", decode[handler.ErrorResponse](t, w).Error)

	w = env.do(http.MethodGet, "/api/v1/clicks?startDate=2024-03-05&endDate=2024-03-01", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, "invalid_argument", decode[handler.ErrorResponse](t, w).Error)

	w = env.do(http.MethodGet, "/api/v1/clicks?startDate=yesterday", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_argument", decode[handler.ErrorResponse](t, w).Error)

	w = env.do(http.MethodGet, "/api/v1/clicks?endDate=05.03.2024", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_argument", decode[handler.ErrorResponse](t, w).Error)

	// неизвестный фильтр не спасает даже полная пара дат
	w = env.do(http.MethodGet, "/api/v1/clicks?filter=bogus&startDate=2024-03-01&endDate=2024-03-05", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_argument", decode[handler.ErrorResponse](t, w).Error)

	// пара дат важнее фильтра; конец дня включительно
	w = env.do(http.MethodGet, "/api/v1/clicks?filter=24h&startDate=2024-03-01&endDate=2024-03-05&shortCode=abc", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", env.clicks.LastQuery.ShortCode)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 59, 999999999, time.UTC), *env.clicks.LastQuery.To)
}

func TestAdminAndReviews(t *testing.T) {
	env := setupTestEnv(t, "", nil)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/v1/admin/insight", env.userToken, nil).Code)

	w := env.do(http.MethodGet, "/api/v1/admin/insight", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	insight := decode[models.AdminInsight](t, w)
	assert.Equal(t, int64(3), insight.TotalLinks)
	assert.Equal(t, int64(7), insight.TotalClicks)

	w = env.do(http.MethodPost, "/api/v1/reviews", env.userToken, map[string]any{
		"original_url": "https://phish.example.com",
		"type":         "PHISHING",
		"action":       "REJECT",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.ReviewStatusPending, decode[models.Review](t, w).Status)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/v1/reviews", env.userToken, nil).Code)

	w = env.do(http.MethodGet, "/api/v1/reviews", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["total"])
}
