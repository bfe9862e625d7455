package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/jackc/pgx/v5"
)

type ReviewRepository interface {
	UpsertURL(ctx context.Context, originalURL string, linkType models.LinkType) (*models.ReviewedURL, error)
	CreateReview(ctx context.Context, review *models.Review) error
	ListReviews(ctx context.Context, page models.Pagination) (*models.Page[models.Review], error)
}

type reviewRepository struct {
	db *PostgresDB
}

func NewReviewRepository(db *PostgresDB) ReviewRepository {
	return &reviewRepository{db: db}
}

// UpsertURL обновляет тип уже известного адреса или заводит новый
func (r *reviewRepository) UpsertURL(ctx context.Context, originalURL string, linkType models.LinkType) (*models.ReviewedURL, error) {
	query := `
		INSERT INTO urls (original_url, type)
		VALUES ($1, $2)
		ON CONFLICT (original_url) DO UPDATE SET type = EXCLUDED.type
		RETURNING id, original_url, type, created_at
	`

	var (
		u        models.ReviewedURL
		typeName string
	)
	err := r.db.Pool.QueryRow(ctx, query, originalURL, string(linkType)).
		Scan(&u.ID, &u.OriginalURL, &typeName, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert url: %w", err)
	}
	u.Type = models.LinkType(typeName)
	return &u, nil
}

func (r *reviewRepository) CreateReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (url_id, reviewer_id, action, status, reason, evidence)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		review.URLID,
		review.ReviewerID,
		string(review.Action),
		string(review.Status),
		review.Reason,
		review.Evidence,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) ListReviews(ctx context.Context, page models.Pagination) (*models.Page[models.Review], error) {
	listQuery := `
		SELECT r.id, r.url_id, r.reviewer_id, r.action, r.status, r.reason, r.evidence, r.created_at,
			u.id, u.original_url, u.type, u.created_at
		FROM reviews r
		JOIN urls u ON u.id = r.url_id
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $1 OFFSET $2
	`

	var (
		reviews []models.Review
		total   int64
	)

	err := r.db.inTx(ctx, snapshotTx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, listQuery, page.Limit, page.Offset())
		if err != nil {
			return fmt.Errorf("failed to list reviews: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rv                      models.Review
				u                       models.ReviewedURL
				action, status, urlType string
			)
			if err := rows.Scan(
				&rv.ID, &rv.URLID, &rv.ReviewerID, &action, &status, &rv.Reason, &rv.Evidence, &rv.CreatedAt,
				&u.ID, &u.OriginalURL, &urlType, &u.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to scan review: %w", err)
			}
			rv.Action = models.ReviewAction(action)
			rv.Status = models.ReviewStatus(status)
			u.Type = models.LinkType(urlType)
			rv.URL = &u
			reviews = append(reviews, rv)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating reviews: %w", err)
		}

		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&total)
	})
	if err != nil {
		return nil, err
	}

	return models.NewPage(reviews, total, page), nil
}
