package repository

import (
	"testing"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/config"
	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type testStores struct {
	db    *PostgresDB
	redis *RedisDB
}

// setupStores поднимает PostgreSQL и Redis в контейнерах и накатывает миграции
func setupStores(t *testing.T) *testStores {
	t.Helper()
	ctx := t.Context()

	dbContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("shortener"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(dbContainer) })

	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(redisContainer) })

	dbHost, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	dbPort, err := dbContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbCfg := config.DBConfig{
		Host:     dbHost,
		Port:     dbPort.Port(),
		User:     "user",
		Password: "password",
		Name:     "shortener",
	}

	m, err := migrations.New(dbCfg.MigrateURL(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	db, err := NewPostgresDB(dbCfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb, err := NewRedisClient(config.RedisConfig{Host: redisHost, Port: redisPort.Port()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return &testStores{db: db, redis: rdb}
}

func createTestUser(t *testing.T, repo UserRepository, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		Name:     "Test",
		Role:     models.RoleUser,
		Provider: models.ProviderLocal,
	}
	require.NoError(t, repo.Create(t.Context(), user))
	return user
}

func strPtr(s string) *string { return &s }

func TestIntegration_Repositories(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	stores := setupStores(t)
	ctx := t.Context()

	users := NewUserRepository(stores.db)
	links := NewLinkRepository(stores.db)
	clicks := NewClickRepository(stores.db)
	analytics := NewAnalyticsRepository(stores.db)
	admin := NewAdminRepository(stores.db)
	reviews := NewReviewRepository(stores.db)
	cache := NewCacheRepository(stores.redis)

	owner := createTestUser(t, users, "owner@example.com")
	other := createTestUser(t, users, "other@example.com")

	t.Run("повторный email", func(t *testing.T) {
		err := users.Create(ctx, &models.User{Email: "owner@example.com", Role: models.RoleUser, Provider: models.ProviderLocal})
		assert.ErrorIs(t, err, ErrEmailExists)

		found, err := users.GetByEmail(ctx, "Owner@Example.com")
		require.NoError(t, err)
		assert.Equal(t, owner.ID, found.ID)
	})

	link := &models.Link{
		UserID:      owner.ID,
		OriginalURL: "https://example.com",
		ShortCode:   "abc12345",
		Type:        models.LinkTypeBenign,
		CreatedAt:   time.Now(),
		UTM:         &models.UTM{Source: strPtr("newsletter")},
		Tags:        []string{"a", "b"},
	}

	t.Run("создание и чтение", func(t *testing.T) {
		require.NoError(t, links.Create(ctx, link))
		assert.NotZero(t, link.ID)

		got, err := links.GetByShortCode(ctx, "abc12345")
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
		assert.Equal(t, []string{"a", "b"}, got.Tags)
		require.NotNil(t, got.UTM)
		assert.Equal(t, "newsletter", *got.UTM.Source)
	})

	t.Run("занятый код", func(t *testing.T) {
		dup := &models.Link{UserID: other.ID, OriginalURL: "https://other.com", ShortCode: "abc12345",
			Type: models.LinkTypeBenign, CreatedAt: time.Now()}
		assert.ErrorIs(t, links.Create(ctx, dup), ErrCodeExists)
	})

	t.Run("дифф тегов", func(t *testing.T) {
		err := links.Update(ctx, UpdateLinkParams{
			Link: link,
			Tags: models.TagDiff{ToRemove: []string{"a"}, ToAdd: []string{"c"}},
		})
		require.NoError(t, err)

		got, err := links.GetByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, got.Tags)
	})

	t.Run("клики и инсайт", func(t *testing.T) {
		now := time.Now().UTC()
		for i := 0; i < 3; i++ {
			click := &models.Click{LinkID: link.ID, IP: "8.8.8.8", City: "Berlin", Timestamp: now}
			ua := &models.UserAgent{Raw: "test", Browser: "Chrome"}
			require.NoError(t, clicks.RecordClick(ctx, click, ua))
			assert.NotZero(t, ua.ID)
		}

		rows, total, err := clicks.Insight(ctx, models.ClickQuery{UserID: owner.ID})
		require.NoError(t, err)
		assert.Len(t, rows, 3)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, "Chrome", rows[0].Browser)

		rows, total, err = clicks.Insight(ctx, models.ClickQuery{UserID: other.ID})
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.Zero(t, total)

		totalClicks, unique, err := clicks.GetStats(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), totalClicks)
		assert.Equal(t, int64(1), unique)
	})

	t.Run("аналитика", func(t *testing.T) {
		counts, err := analytics.LinkClickCounts(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, counts, 1)
		assert.Equal(t, int64(3), counts[0].Clicks)

		active, err := analytics.CountLinks(ctx, models.LinkCountFilter{UserID: owner.ID, Metric: models.MetricActive})
		require.NoError(t, err)
		assert.Equal(t, int64(1), active)

		usage, err := analytics.TagUsage(ctx, owner.ID)
		require.NoError(t, err)
		assert.Len(t, usage, 2)

		types, err := analytics.TypeDistribution(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, types, 1)
		assert.Equal(t, models.LinkTypeBenign, types[0].Type)

		stats, err := admin.UserStatistics(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.TotalUsers, int64(2))
	})

	t.Run("архивная ссылка освобождает код", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, links.SetDeletedAt(ctx, link.ID, &now))

		fresh := &models.Link{UserID: other.ID, OriginalURL: "https://fresh.com", ShortCode: "abc12345",
			Type: models.LinkTypeBenign, CreatedAt: time.Now()}
		require.NoError(t, links.Create(ctx, fresh))

		got, err := links.GetByShortCode(ctx, "abc12345")
		require.NoError(t, err)
		assert.Equal(t, fresh.ID, got.ID)

		// восстановить старую нельзя, пока код занят
		assert.ErrorIs(t, links.SetDeletedAt(ctx, link.ID, nil), ErrCodeExists)
	})

	t.Run("страница ссылок", func(t *testing.T) {
		deleted := true
		page, err := links.FindPage(ctx, models.LinkFilter{UserID: &owner.ID, Deleted: &deleted},
			models.Pagination{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, link.ID, page.Items[0].ID)

		page, err = links.FindPage(ctx, models.LinkFilter{ExcludeUserID: &owner.ID}, models.Pagination{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("модерация", func(t *testing.T) {
		u, err := reviews.UpsertURL(ctx, "https://bad.example.com", models.LinkTypePhishing)
		require.NoError(t, err)

		again, err := reviews.UpsertURL(ctx, "https://bad.example.com", models.LinkTypeMalware)
		require.NoError(t, err)
		assert.Equal(t, u.ID, again.ID)
		assert.Equal(t, models.LinkTypeMalware, again.Type)

		review := &models.Review{URLID: u.ID, ReviewerID: owner.ID, Action: models.ReviewActionReject,
			Status: models.ReviewStatusPending}
		require.NoError(t, reviews.CreateReview(ctx, review))

		page, err := reviews.ListReviews(ctx, models.Pagination{Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "https://bad.example.com", page.Items[0].URL.OriginalURL)
	})

	t.Run("кэш", func(t *testing.T) {
		_, err := cache.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrCacheMiss)

		require.NoError(t, cache.Set(ctx, link.ShortCode, link, time.Minute))
		got, err := cache.Get(ctx, link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)

		require.NoError(t, cache.Delete(ctx, link.ShortCode))
		_, err = cache.Get(ctx, link.ShortCode)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}
