package service

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
)

type ReviewService interface {
	Submit(ctx context.Context, reviewerID int64, input *models.ReviewInput) (*models.Review, error)
	List(ctx context.Context, page models.Pagination) (*models.Page[models.Review], error)
}

type reviewService struct {
	repo repository.ReviewRepository
}

func NewReviewService(repo repository.ReviewRepository) ReviewService {
	return &reviewService{repo: repo}
}

// Submit фиксирует тип адреса и заводит заявку на модерацию в статусе PENDING
func (s *reviewService) Submit(ctx context.Context, reviewerID int64, input *models.ReviewInput) (*models.Review, error) {
	if err := validateURL(input.OriginalURL); err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: неизвестный тип ссылки %q", ErrInvalidArgument, input.Type)
	}
	if !input.Action.Valid() {
		return nil, fmt.Errorf("%w: неизвестное действие %q", ErrInvalidArgument, input.Action)
	}

	u, err := s.repo.UpsertURL(ctx, input.OriginalURL, input.Type)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		URLID:      u.ID,
		ReviewerID: reviewerID,
		Action:     input.Action,
		Status:     models.ReviewStatusPending,
		Reason:     input.Reason,
		Evidence:   input.Evidence,
		URL:        u,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) List(ctx context.Context, page models.Pagination) (*models.Page[models.Review], error) {
	return s.repo.ListReviews(ctx, page)
}
