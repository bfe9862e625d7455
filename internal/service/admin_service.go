package service

import (
	"context"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
)

const mostClickedLimit = 10

type AdminService interface {
	Insight(ctx context.Context) (*models.AdminInsight, error)
}

type adminService struct {
	repo repository.AdminRepository
}

func NewAdminService(repo repository.AdminRepository) AdminService {
	return &adminService{repo: repo}
}

func (s *adminService) Insight(ctx context.Context) (*models.AdminInsight, error) {
	totalLinks, err := s.repo.TotalLinks(ctx)
	if err != nil {
		return nil, err
	}
	totalClicks, err := s.repo.TotalClicks(ctx)
	if err != nil {
		return nil, err
	}
	mostClicked, err := s.repo.MostClickedLinks(ctx, mostClickedLimit)
	if err != nil {
		return nil, err
	}
	if mostClicked == nil {
		mostClicked = []models.LinkClickCount{}
	}
	users, err := s.repo.UserStatistics(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AdminInsight{
		TotalLinks:       totalLinks,
		TotalClicks:      totalClicks,
		MostClickedLinks: mostClicked,
		UserStatistics:   *users,
	}, nil
}
