package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/jackc/pgx/v5"
)

type ClickRepository interface {
	RecordClick(ctx context.Context, click *models.Click, ua *models.UserAgent) error
	Insight(ctx context.Context, q models.ClickQuery) ([]models.ClickRow, int64, error)
	GetStats(ctx context.Context, linkID int64) (total int64, unique int64, err error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

// RecordClick пишет отпечаток user-agent и клик одной транзакцией
func (r *clickRepository) RecordClick(ctx context.Context, click *models.Click, ua *models.UserAgent) error {
	return r.db.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO user_agents (ua, browser, browser_version, os, os_version, cpu_arch, device_type, engine)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`,
			ua.Raw,
			ua.Browser,
			ua.BrowserVersion,
			ua.OS,
			ua.OSVersion,
			ua.CPUArch,
			ua.DeviceType,
			ua.Engine,
		).Scan(&ua.ID)
		if err != nil {
			return fmt.Errorf("failed to insert user agent: %w", err)
		}

		click.UserAgentID = ua.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO clicks (link_id, user_agent_id, ip, city, region, country, country_code,
				loc, org, postal, timezone, clicked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`,
			click.LinkID,
			click.UserAgentID,
			click.IP,
			click.City,
			click.Region,
			click.Country,
			click.CountryCode,
			click.Loc,
			click.Org,
			click.Postal,
			click.Timezone,
			click.Timestamp,
		).Scan(&click.ID)
		if err != nil {
			return fmt.Errorf("failed to record click: %w", err)
		}
		return nil
	})
}

func clickWhere(q models.ClickQuery) *whereBuilder {
	w := &whereBuilder{}
	w.add("l.user_id = ?", q.UserID)
	if q.ShortCode != "" {
		w.add("l.short_code = ?", q.ShortCode)
	}
	if q.From != nil {
		w.add("c.clicked_at >= ?", *q.From)
	}
	if q.To != nil {
		w.add("c.clicked_at <= ?", *q.To)
	}
	return w
}

// Insight возвращает клики в окне и их количество, посчитанное отдельным
// запросом в том же снимке
func (r *clickRepository) Insight(ctx context.Context, q models.ClickQuery) ([]models.ClickRow, int64, error) {
	w := clickWhere(q)
	where := w.sql()

	listQuery := `
		SELECT l.short_code, l.original_url, c.clicked_at, c.city, c.region, c.country,
			ua.browser, ua.browser_version, ua.os, ua.os_version, ua.cpu_arch, ua.device_type
		FROM clicks c
		JOIN links l ON l.id = c.link_id
		JOIN user_agents ua ON ua.id = c.user_agent_id` + where + `
		ORDER BY c.clicked_at ASC, c.id ASC`
	countQuery := `SELECT COUNT(*) FROM clicks c JOIN links l ON l.id = c.link_id` + where

	var (
		result []models.ClickRow
		total  int64
	)

	err := r.db.inTx(ctx, snapshotTx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, listQuery, w.args...)
		if err != nil {
			return fmt.Errorf("failed to query clicks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var row models.ClickRow
			if err := rows.Scan(
				&row.ShortCode,
				&row.OriginalURL,
				&row.Timestamp,
				&row.City,
				&row.Region,
				&row.Country,
				&row.Browser,
				&row.BrowserVersion,
				&row.OS,
				&row.OSVersion,
				&row.CPUArch,
				&row.DeviceType,
			); err != nil {
				return fmt.Errorf("failed to scan click: %w", err)
			}
			result = append(result, row)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating clicks: %w", err)
		}

		if err := tx.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count clicks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *clickRepository) GetStats(ctx context.Context, linkID int64) (int64, int64, error) {
	query := `
		SELECT
			COUNT(*) as total_clicks,
			COUNT(DISTINCT NULLIF(ip, '')) as unique_clicks
		FROM clicks
		WHERE link_id = $1
	`

	var total, unique int64
	if err := r.db.Pool.QueryRow(ctx, query, linkID).Scan(&total, &unique); err != nil {
		return 0, 0, fmt.Errorf("failed to get click stats: %w", err)
	}
	return total, unique, nil
}
