package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Page size bounds shared by the timeline API and exports.
const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// ErrTruncated is returned by Walk when maxPages is reached with rows left.
var ErrTruncated = errors.New("audit: export truncated")

// Repository loads audit timeline windows.
type Repository interface {
	TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error)
}

// Result wraps a timeline page together with its paging metadata.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}

// Service coordinates audit timeline reads.
type Service struct {
	repo Repository
}

// NewService constructs the audit timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline loads one page of audit entries. It fetches one extra row to
// detect whether a next page exists.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	params := WindowParams{
		From:       optionalTime(filters.From),
		To:         optionalTime(filters.To),
		Actor:      optionalText(filters.Actor),
		Entity:     optionalText(filters.Entity),
		Action:     optionalText(filters.Action),
		OffsetRows: (page - 1) * pageSize,
		LimitRows:  pageSize + 1,
	}
	rows, err := s.repo.TimelineWindow(ctx, params)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []TimelineRow{}
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Pager is anything that serves timeline pages.
type Pager interface {
	Timeline(ctx context.Context, filters TimelineFilters) (Result, error)
}

// Walk feeds visit every page matching filters at MaxPageSize, starting from
// page one. It stops with ErrTruncated after maxPages when more rows remain.
func Walk(ctx context.Context, pager Pager, filters TimelineFilters, maxPages int, visit func([]TimelineRow) error) error {
	filters.PageSize = MaxPageSize
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		filters.Page = page
		result, err := pager.Timeline(ctx, filters)
		if err != nil {
			return err
		}
		if err := visit(result.Rows); err != nil {
			return err
		}
		if !result.Paging.HasNext {
			return nil
		}
		if page >= maxPages {
			return ErrTruncated
		}
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func optionalText(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
