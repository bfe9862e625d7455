package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/jackc/pgx/v5"
)

type AnalyticsRepository interface {
	LinkClickCounts(ctx context.Context, userID int64) ([]models.LinkClickCount, error)
	CountLinks(ctx context.Context, filter models.LinkCountFilter) (int64, error)
	TagUsage(ctx context.Context, userID int64) ([]models.TagUsage, error)
	TypeDistribution(ctx context.Context, userID int64) ([]models.TypeCount, error)
}

// AdminRepository - показатели по всей платформе
type AdminRepository interface {
	TotalLinks(ctx context.Context) (int64, error)
	TotalClicks(ctx context.Context) (int64, error)
	MostClickedLinks(ctx context.Context, limit int) ([]models.LinkClickCount, error)
	UserStatistics(ctx context.Context) (*models.UserStatistics, error)
}

type analyticsRepository struct {
	db *PostgresDB
}

func NewAnalyticsRepository(db *PostgresDB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func NewAdminRepository(db *PostgresDB) AdminRepository {
	return &analyticsRepository{db: db}
}

func scanLinkClickCounts(rows pgx.Rows) ([]models.LinkClickCount, error) {
	defer rows.Close()

	var counts []models.LinkClickCount
	for rows.Next() {
		var c models.LinkClickCount
		if err := rows.Scan(&c.LinkID, &c.ShortCode, &c.OriginalURL, &c.CreatedAt, &c.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan link clicks: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link clicks: %w", err)
	}
	return counts, nil
}

// LinkClickCounts - все ссылки владельца с числом кликов в порядке создания
func (r *analyticsRepository) LinkClickCounts(ctx context.Context, userID int64) ([]models.LinkClickCount, error) {
	query := `
		SELECT l.id, l.short_code, l.original_url, l.created_at, COUNT(c.id)
		FROM links l
		LEFT JOIN clicks c ON c.link_id = l.id
		WHERE l.user_id = $1
		GROUP BY l.id
		ORDER BY l.created_at ASC, l.id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get link clicks: %w", err)
	}
	return scanLinkClickCounts(rows)
}

func (r *analyticsRepository) CountLinks(ctx context.Context, filter models.LinkCountFilter) (int64, error) {
	w := &whereBuilder{}
	w.add("user_id = ?", filter.UserID)

	switch filter.Metric {
	case models.MetricTotal, "":
	case models.MetricActive:
		w.add("expires_at IS NULL")
		w.add("deleted_at IS NULL")
	case models.MetricExpired:
		w.add("expires_at IS NOT NULL")
	case models.MetricArchived:
		w.add("deleted_at IS NOT NULL")
	default:
		return 0, fmt.Errorf("unknown link metric %q", filter.Metric)
	}

	if filter.CreatedFrom != nil {
		w.add("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		w.add("created_at < ?", *filter.CreatedTo)
	}

	var count int64
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM links"+w.sql(), w.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// TagUsage считает связи тегов со ссылками владельца
func (r *analyticsRepository) TagUsage(ctx context.Context, userID int64) ([]models.TagUsage, error) {
	query := `
		SELECT t.name, COUNT(*)
		FROM tag_links tl
		JOIN tags t ON t.id = tl.tag_id
		JOIN links l ON l.id = tl.link_id
		WHERE l.user_id = $1
		GROUP BY t.name
		ORDER BY t.name
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag usage: %w", err)
	}

	usage, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TagUsage, error) {
		var u models.TagUsage
		err := row.Scan(&u.TagName, &u.UsageCount)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan tag usage: %w", err)
	}
	return usage, nil
}

func (r *analyticsRepository) TypeDistribution(ctx context.Context, userID int64) ([]models.TypeCount, error) {
	query := `
		SELECT type, COUNT(*)
		FROM links
		WHERE user_id = $1
		GROUP BY type
		ORDER BY type
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get type distribution: %w", err)
	}

	types, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TypeCount, error) {
		var (
			t        models.TypeCount
			linkType string
		)
		err := row.Scan(&linkType, &t.Count)
		t.Type = models.LinkType(linkType)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan type distribution: %w", err)
	}
	return types, nil
}

func (r *analyticsRepository) TotalLinks(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM links`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) TotalClicks(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM clicks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) MostClickedLinks(ctx context.Context, limit int) ([]models.LinkClickCount, error) {
	query := `
		SELECT l.id, l.short_code, l.original_url, l.created_at, COUNT(c.id) AS clicks
		FROM links l
		JOIN clicks c ON c.link_id = l.id
		GROUP BY l.id
		ORDER BY clicks DESC, l.id ASC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get most clicked links: %w", err)
	}
	return scanLinkClickCounts(rows)
}

func (r *analyticsRepository) UserStatistics(ctx context.Context) (*models.UserStatistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_email_verified),
			COUNT(*) FILTER (WHERE NOT is_email_verified)
		FROM users
	`

	var stats models.UserStatistics
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.VerifiedUsers,
		&stats.UnverifiedUsers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user statistics: %w", err)
	}
	return &stats, nil
}
