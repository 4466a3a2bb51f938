package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestor/backoffice/internal/finance/domain"
	"github.com/gestor/backoffice/internal/finance/events"
	"github.com/gestor/backoffice/internal/finance/repository"
	"github.com/gestor/backoffice/pkg/errors"
	"github.com/gestor/backoffice/pkg/logger"
	"github.com/gestor/backoffice/pkg/messaging"
	"github.com/gestor/backoffice/pkg/validation"
)

// CategoryInput is the writable part of a category
type CategoryInput struct {
	Name        string      `json:"name" validate:"required,max=255"`
	Description *string     `json:"description" validate:"omitempty,max=1000"`
	Kind        domain.Kind `json:"type" validate:"required,oneof=INCOME EXPENSE"`
}

// EntryInput is the writable part of a manual entry
type EntryInput struct {
	Description string          `json:"description" validate:"required,max=255"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0,lte=99999999.99,money"`
	Kind        domain.Kind     `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Date        time.Time       `json:"date" validate:"required"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
}

// FinanceService handles categories, manual entries and reporting
type FinanceService struct {
	categories *repository.CategoryRepository
	entries    *repository.EntryRepository
	publisher  *events.FinanceEventPublisher
	logger     *logger.Logger
}

// NewFinanceService creates a new finance service
func NewFinanceService(
	categories *repository.CategoryRepository,
	entries *repository.EntryRepository,
	publisher *events.FinanceEventPublisher,
	log *logger.Logger,
) *FinanceService {
	return &FinanceService{
		categories: categories,
		entries:    entries,
		publisher:  publisher,
		logger:     log,
	}
}

// Category operations

// CreateCategory creates a category
func (s *FinanceService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if err := validation.Check(in); err != nil {
		return nil, err
	}

	c := &domain.Category{Name: in.Name, Description: in.Description, Kind: in.Kind}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory gets a category by ID
func (s *FinanceService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.GetByID(ctx, id)
}

// ListCategories lists categories, optionally of one kind
func (s *FinanceService) ListCategories(ctx context.Context, kind domain.Kind) ([]*domain.Category, error) {
	if kind != "" && !kind.Valid() {
		return nil, errors.Validation(map[string]string{"type": "must be INCOME or EXPENSE"})
	}
	return s.categories.List(ctx, kind)
}

// Entry operations

// CreateEntry records a manual entry with no owner
func (s *FinanceService) CreateEntry(ctx context.Context, in EntryInput) (*domain.Entry, error) {
	category, err := s.checkEntry(ctx, in)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		Description:  in.Description,
		Amount:       in.Amount,
		Kind:         in.Kind,
		Date:         in.Date,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Origin:       domain.NoOrigin(),
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.publisher.PublishEntryChanged(ctx, messaging.EventEntryCreated, entry)
	return entry, nil
}

// GetEntry gets an entry by ID
func (s *FinanceService) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	return s.entries.GetByID(ctx, id)
}

// UpdateEntry rewrites a manual entry. Linked entries change only through their owner.
func (s *FinanceService) UpdateEntry(ctx context.Context, id string, in EntryInput) (*domain.Entry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Linked() {
		return nil, errors.LinkedEntry(string(entry.Origin.Kind()))
	}

	category, err := s.checkEntry(ctx, in)
	if err != nil {
		return nil, err
	}

	entry.Description = in.Description
	entry.Amount = in.Amount
	entry.Kind = in.Kind
	entry.Date = in.Date
	entry.CategoryID = category.ID
	entry.CategoryName = category.Name
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.publisher.PublishEntryChanged(ctx, messaging.EventEntryUpdated, entry)
	return entry, nil
}

// DeleteEntry deletes a manual entry
func (s *FinanceService) DeleteEntry(ctx context.Context, id string) error {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.Linked() {
		return errors.LinkedEntry(string(entry.Origin.Kind()))
	}

	if err := s.entries.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishEntryChanged(ctx, messaging.EventEntryDeleted, entry)
	return nil
}

// ListEntries lists entries matching filter
func (s *FinanceService) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	var errs validation.Errors
	if filter.Kind != "" && !filter.Kind.Valid() {
		errs.Add("type", "oneof", "INCOME EXPENSE")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		errs.Add("to", "date_range", "")
	}
	if filter.Limit < 0 {
		errs.Add("limit", "min", "0")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return s.entries.List(ctx, filter)
}

// Summary totals income and expense over [from, to]
func (s *FinanceService) Summary(ctx context.Context, from, to time.Time) (*domain.Summary, error) {
	if from.After(to) {
		var errs validation.Errors
		errs.Add("to", "date_range", "")
		return nil, errs.Err()
	}

	income, expense, err := s.entries.Totals(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &domain.Summary{
		From:    from,
		To:      to,
		Income:  income,
		Expense: expense,
		Net:     income.Sub(expense),
	}, nil
}

// MonthSummary is Summary over the calendar month containing t
func (s *FinanceService) MonthSummary(ctx context.Context, t time.Time) (*domain.Summary, error) {
	from, to := domain.MonthRange(t)
	return s.Summary(ctx, from, to)
}

// checkEntry validates in and resolves its category. A category that does not
// exist, or whose kind differs from the entry's, is a field error.
func (s *FinanceService) checkEntry(ctx context.Context, in EntryInput) (*domain.Category, error) {
	errs := validation.Struct(in)
	if len(errs) > 0 {
		return nil, errs.Err()
	}

	category, err := s.categories.GetByID(ctx, in.CategoryID)
	if errors.Is(err, errors.ErrNotFound) {
		errs.Add("category_id", "invalid", "")
		return nil, errs.Err()
	}
	if err != nil {
		return nil, err
	}
	if category.Kind != in.Kind {
		errs.Add("category_id", "oneof", string(in.Kind))
		return nil, errs.Err()
	}

	return category, nil
}
