package service

import (
	"context"

	"stagedoor/internal/models"
	"stagedoor/internal/repository"
	"stagedoor/internal/search"
)

// ShowService serves the catalog and schedule reads. Search goes through
// Elasticsearch; schedule and seat maps come straight from the store.
type ShowService struct {
	repos  *repository.Repositories
	search *search.ElasticsearchClient
}

func NewShowService(repos *repository.Repositories, es *search.ElasticsearchClient) *ShowService {
	return &ShowService{
		repos:  repos,
		search: es,
	}
}

func (s *ShowService) Search(ctx context.Context, query, genre string, page, pageSize int) ([]models.ShowSearchResponseItem, error) {
	if s.search == nil {
		return []models.ShowSearchResponseItem{}, nil
	}
	return s.search.Search(ctx, query, genre, page, pageSize)
}

func (s *ShowService) ListPerformances(ctx context.Context) ([]models.ListPerformancesResponseItem, error) {
	return s.repos.Performances.ListPerformances(ctx)
}

func (s *ShowService) GetPerformance(ctx context.Context, id int64) (*models.Performance, error) {
	return s.repos.Performances.GetPerformance(ctx, id)
}

func (s *ShowService) ListSeatMap(ctx context.Context, performanceID int64) ([]models.ListSeatsResponseItem, error) {
	return s.repos.Seats.ListSeatMap(ctx, performanceID)
}
