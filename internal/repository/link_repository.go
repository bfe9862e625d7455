package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByShortCode(ctx context.Context, code string) (*models.Link, error)
	GetByID(ctx context.Context, id int64) (*models.Link, error)
	FindPage(ctx context.Context, filter models.LinkFilter, page models.Pagination) (*models.Page[models.Link], error)
	Update(ctx context.Context, params UpdateLinkParams) error
	SetDeletedAt(ctx context.Context, id int64, at *time.Time) error
	RemoveUTM(ctx context.Context, id int64) error
	ListUserTags(ctx context.Context, userID int64) ([]string, error)
}

// UpdateLinkParams: Link несёт новые значения колонок, UTM == nil - не трогать UTM
type UpdateLinkParams struct {
	Link *models.Link
	UTM  *models.UTM
	Tags models.TagDiff
}

const linkSelect = `
	SELECT
		l.id, l.user_id, l.original_url, l.short_code, l.type, l.comments, l.qrcode,
		l.expires_at, l.expired_redirect_url, l.created_at, l.updated_at, l.deleted_at,
		u.link_id IS NOT NULL, u.source, u.medium, u.campaign, u.term, u.content,
		COALESCE((
			SELECT array_agg(t.name ORDER BY t.name)
			FROM tag_links tl JOIN tags t ON t.id = tl.tag_id
			WHERE tl.link_id = l.id
		), '{}'),
		(SELECT COUNT(*) FROM clicks c WHERE c.link_id = l.id)
	FROM links l
	LEFT JOIN utms u ON u.link_id = l.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*models.Link, error) {
	var (
		link     models.Link
		linkType string
		hasUTM   bool
		utm      models.UTM
	)

	err := row.Scan(
		&link.ID,
		&link.UserID,
		&link.OriginalURL,
		&link.ShortCode,
		&linkType,
		&link.Comments,
		&link.QRCode,
		&link.ExpiresAt,
		&link.ExpiredRedirectURL,
		&link.CreatedAt,
		&link.UpdatedAt,
		&link.DeletedAt,
		&hasUTM,
		&utm.Source,
		&utm.Medium,
		&utm.Campaign,
		&utm.Term,
		&utm.Content,
		&link.Tags,
		&link.ClickCount,
	)
	if err != nil {
		return nil, err
	}

	link.Type = models.LinkType(linkType)
	if hasUTM {
		link.UTM = &utm
	}
	return &link, nil
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (user_id, original_url, short_code, type, comments, qrcode,
			expires_at, expired_redirect_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, created_at, updated_at
	`

	return r.db.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			link.UserID,
			link.OriginalURL,
			link.ShortCode,
			string(link.Type),
			link.Comments,
			link.QRCode,
			link.ExpiresAt,
			link.ExpiredRedirectURL,
			link.CreatedAt,
		).Scan(&link.ID, &link.CreatedAt, &link.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCodeExists
			}
			return fmt.Errorf("failed to create link: %w", err)
		}

		if link.UTM != nil {
			if err := upsertUTM(ctx, tx, link.ID, link.UTM); err != nil {
				return err
			}
		}

		return addTags(ctx, tx, link.ID, link.Tags)
	})
}

func (r *linkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	// Живая ссылка важнее архивных с тем же кодом
	query := linkSelect + `
		WHERE l.short_code = $1
		ORDER BY l.deleted_at IS NOT NULL, l.id DESC
		LIMIT 1
	`

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

func (r *linkRepository) GetByID(ctx context.Context, id int64) (*models.Link, error) {
	link, err := scanLink(r.db.Pool.QueryRow(ctx, linkSelect+` WHERE l.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

func linkWhere(filter models.LinkFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.UserID != nil {
		w.add("l.user_id = ?", *filter.UserID)
	}
	if filter.ExcludeUserID != nil {
		w.add("l.user_id <> ?", *filter.ExcludeUserID)
	}
	if filter.Deleted != nil {
		if *filter.Deleted {
			w.add("l.deleted_at IS NOT NULL")
		} else {
			w.add("l.deleted_at IS NULL")
		}
	}
	if filter.Expired != nil {
		if *filter.Expired {
			w.add("(l.expires_at IS NOT NULL AND l.expires_at <= NOW())")
		} else {
			w.add("(l.expires_at IS NULL OR l.expires_at > NOW())")
		}
	}
	return w
}

// FindPage возвращает страницу ссылок и общее количество одним снимком
func (r *linkRepository) FindPage(ctx context.Context, filter models.LinkFilter, page models.Pagination) (*models.Page[models.Link], error) {
	w := linkWhere(filter)
	where := w.sql()
	n := len(w.args)

	listQuery := fmt.Sprintf("%s%s ORDER BY l.created_at DESC, l.id DESC LIMIT $%d OFFSET $%d",
		linkSelect, where, n+1, n+2)
	countQuery := "SELECT COUNT(*) FROM links l" + where

	var (
		links []models.Link
		total int64
	)

	err := r.db.inTx(ctx, snapshotTx, func(tx pgx.Tx) error {
		listArgs := append(append([]any{}, w.args...), page.Limit, page.Offset())
		rows, err := tx.Query(ctx, listQuery, listArgs...)
		if err != nil {
			return fmt.Errorf("failed to list links: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			link, err := scanLink(rows)
			if err != nil {
				return fmt.Errorf("failed to scan link: %w", err)
			}
			links = append(links, *link)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating links: %w", err)
		}

		if err := tx.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count links: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return models.NewPage(links, total, page), nil
}

func (r *linkRepository) Update(ctx context.Context, params UpdateLinkParams) error {
	link := params.Link
	query := `
		UPDATE links
		SET short_code = $2, expires_at = $3, expired_redirect_url = $4,
			qrcode = $5, comments = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	return r.db.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			link.ID,
			link.ShortCode,
			link.ExpiresAt,
			link.ExpiredRedirectURL,
			link.QRCode,
			link.Comments,
		).Scan(&link.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrLinkNotFound
			}
			if isUniqueViolation(err) {
				return ErrCodeExists
			}
			return fmt.Errorf("failed to update link: %w", err)
		}

		if params.UTM != nil {
			if err := upsertUTM(ctx, tx, link.ID, params.UTM); err != nil {
				return err
			}
		}

		if len(params.Tags.ToRemove) > 0 {
			_, err := tx.Exec(ctx, `
				DELETE FROM tag_links tl
				USING tags t
				WHERE tl.tag_id = t.id AND tl.link_id = $1 AND t.name = ANY($2)
			`, link.ID, params.Tags.ToRemove)
			if err != nil {
				return fmt.Errorf("failed to remove tags: %w", err)
			}
		}

		return addTags(ctx, tx, link.ID, params.Tags.ToAdd)
	})
}

func (r *linkRepository) SetDeletedAt(ctx context.Context, id int64, at *time.Time) error {
	result, err := r.db.Pool.Exec(ctx,
		`UPDATE links SET deleted_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		// восстановление упирается в живую ссылку с тем же кодом
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to set deleted_at: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *linkRepository) RemoveUTM(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM utms WHERE link_id = $1`, id); err != nil {
		return fmt.Errorf("failed to remove utm: %w", err)
	}
	return nil
}

func (r *linkRepository) ListUserTags(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT DISTINCT t.name
		FROM tags t
		JOIN tag_links tl ON tl.tag_id = t.id
		JOIN links l ON l.id = tl.link_id
		WHERE l.user_id = $1
		ORDER BY t.name
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	tags, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan tags: %w", err)
	}
	return tags, nil
}

func upsertUTM(ctx context.Context, tx pgx.Tx, linkID int64, utm *models.UTM) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO utms (link_id, source, medium, campaign, term, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (link_id) DO UPDATE SET
			source = EXCLUDED.source,
			medium = EXCLUDED.medium,
			campaign = EXCLUDED.campaign,
			term = EXCLUDED.term,
			content = EXCLUDED.content
	`, linkID, utm.Source, utm.Medium, utm.Campaign, utm.Term, utm.Content)
	if err != nil {
		return fmt.Errorf("failed to upsert utm: %w", err)
	}
	return nil
}

// addTags создаёт недостающие теги по имени и связывает их со ссылкой
func addTags(ctx context.Context, tx pgx.Tx, linkID int64, names []string) error {
	for _, name := range names {
		var tagID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, name).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", name, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO tag_links (link_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			linkID, tagID)
		if err != nil {
			return fmt.Errorf("failed to link tag %q: %w", name, err)
		}
	}
	return nil
}
