package employees

import (
	"context"

	"github.com/google/uuid"

	"github.com/odyssey-hr/odyssey-hr/internal/shared"
)

// RepositoryPort defines data access methods for employee profiles.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Profile, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (Profile, error)
}

// Service exposes read access to employee profiles.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns a page of profiles.
func (s *Service) List(ctx context.Context, filter ListFilter) (Page, error) {
	window := shared.NewPagination(filter.Page, filter.PerPage, 0)
	items, total, err := s.repo.List(ctx, filter, window.PerPage, window.Offset())
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []Profile{}
	}
	return Page{Items: items, Pagination: shared.NewPagination(window.Page, window.PerPage, total)}, nil
}

// Get returns a single profile.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Profile, error) {
	return s.repo.FindByID(ctx, id)
}
