package departments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/cache"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
)

// RepositoryPort defines data access methods for departments.
type RepositoryPort interface {
	List(ctx context.Context) ([]Department, error)
	FindByCode(ctx context.Context, code string) (Department, error)
	Create(ctx context.Context, dept Department) (Department, error)
}

// Cache stores resolved departments by code.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

// Service exposes org structure operations.
type Service struct {
	repo     RepositoryPort
	cache    Cache
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, c Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, validate: validator.New(), logger: logger}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ResolveCode returns the department for code, reading through the cache.
// Cache failures are logged and fall back to the repository.
func (s *Service) ResolveCode(ctx context.Context, code string) (Department, error) {
	key := normalizeCode(code)
	if key == "" {
		return Department{}, ErrNotFound
	}
	if s.cache != nil {
		var cached Department
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("department cache get", slog.String("code", key), slog.Any("error", err))
		}
	}
	dept, err := s.repo.FindByCode(ctx, key)
	if err != nil {
		return Department{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dept); err != nil {
			s.logger.Warn("department cache set", slog.String("code", key), slog.Any("error", err))
		}
	}
	return dept, nil
}

// List returns every department.
func (s *Service) List(ctx context.Context) ([]Department, error) {
	return s.repo.List(ctx)
}

// Create validates and stores a department.
func (s *Service) Create(ctx context.Context, input CreateInput) (Department, error) {
	input.Code = normalizeCode(input.Code)
	input.ParentCode = normalizeCode(input.ParentCode)
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return Department{}, fmt.Errorf("%w: %s", httpx.ErrValidation, describeValidation(err))
	}
	dept := Department{ID: uuid.New(), Code: input.Code, Name: input.Name}
	if input.ParentCode != "" {
		parent, err := s.ResolveCode(ctx, input.ParentCode)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Department{}, fmt.Errorf("%w: parent department %q does not exist", httpx.ErrValidation, input.ParentCode)
			}
			return Department{}, err
		}
		dept.ParentID = &parent.ID
	}
	created, err := s.repo.Create(ctx, dept)
	if err != nil {
		return Department{}, err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, created.Code); err != nil {
			s.logger.Warn("department cache invalidate", slog.String("code", created.Code), slog.Any("error", err))
		}
	}
	return created, nil
}

// Tree returns the org structure rooted at departments without a parent.
// Departments whose parent is missing are treated as roots.
func (s *Service) Tree(ctx context.Context) ([]*Node, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(list), nil
}

// BuildTree arranges departments into a forest ordered by code.
func BuildTree(list []Department) []*Node {
	nodes := make(map[uuid.UUID]*Node, len(list))
	for _, d := range list {
		nodes[d.ID] = &Node{Department: d, Children: []*Node{}}
	}
	roots := []*Node{}
	for _, d := range list {
		node := nodes[d.ID]
		if d.ParentID != nil {
			if parent, ok := nodes[*d.ParentID]; ok && *d.ParentID != d.ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Code < nodes[j].Code })
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
