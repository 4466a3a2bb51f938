package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestor/backoffice/internal/finance/domain"
	"github.com/gestor/backoffice/internal/finance/events"
	"github.com/gestor/backoffice/internal/finance/repository"
	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/errors"
	"github.com/gestor/backoffice/pkg/logger"
)

// Link is what an owner's entry must look like
type Link struct {
	CategoryName        string
	CategoryDescription string
	Description         string
	Amount              decimal.Decimal
	Date                time.Time
}

// Owner is a record that carries exactly one ledger entry: a vehicle cost or
// an employee payment
type Owner interface {
	LedgerOrigin() domain.Origin
	LedgerLink() Link
}

// LedgerService keeps an owner and its entry in lockstep. Each operation runs
// in a single transaction; a failure in any step rolls back the owner change too.
type LedgerService struct {
	db         *database.DB
	categories *repository.CategoryRepository
	entries    *repository.EntryRepository
	publisher  *events.FinanceEventPublisher
	logger     *logger.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	db *database.DB,
	categories *repository.CategoryRepository,
	entries *repository.EntryRepository,
	publisher *events.FinanceEventPublisher,
	log *logger.Logger,
) *LedgerService {
	return &LedgerService{
		db:         db,
		categories: categories,
		entries:    entries,
		publisher:  publisher,
		logger:     log.WithComponent("ledger"),
	}
}

// CreateLinked inserts an owner through insert and posts its entry.
// Neither is persisted unless both are.
func (s *LedgerService) CreateLinked(ctx context.Context, insert func(ctx context.Context) (Owner, error)) (*domain.Entry, error) {
	var entry *domain.Entry

	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		owner, err := insert(ctx)
		if err != nil {
			return &ownerStepError{err: err}
		}

		category, err := s.resolveCategory(ctx, owner.LedgerLink())
		if err != nil {
			return err
		}

		entry = newLinkedEntry(owner, category.ID)
		return s.entries.Create(ctx, entry)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("linked create rolled back")
		return nil, linkFailure(err, errors.LinkCreationFailed)
	}

	s.logger.WithOwner(string(entry.Origin.Kind()), entry.Origin.ID()).Info().
		Str("entry_id", entry.ID).
		Msg("linked entry created")
	s.publisher.PublishEntryLinked(ctx, entry)

	return entry, nil
}

// UpdateLinked applies update to an owner and rewrites its entry to match.
// An owner found without an entry gets one, so every owner ends the
// transaction with exactly one.
func (s *LedgerService) UpdateLinked(ctx context.Context, update func(ctx context.Context) (Owner, error)) (*domain.Entry, error) {
	var (
		entry      *domain.Entry
		backfilled bool
	)

	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		owner, err := update(ctx)
		if err != nil {
			return &ownerStepError{err: err}
		}

		category, err := s.resolveCategory(ctx, owner.LedgerLink())
		if err != nil {
			return err
		}

		existing, err := s.entries.GetByOrigin(ctx, owner.LedgerOrigin())
		if errors.Is(err, errors.ErrNotFound) {
			backfilled = true
			entry = newLinkedEntry(owner, category.ID)
			return s.entries.Create(ctx, entry)
		}
		if err != nil {
			return err
		}

		link := owner.LedgerLink()
		existing.Description = link.Description
		existing.Amount = link.Amount
		existing.Date = link.Date
		existing.CategoryID = category.ID
		existing.CategoryName = category.Name
		entry = existing
		return s.entries.Update(ctx, entry)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("linked update rolled back")
		return nil, linkFailure(err, errors.LinkUpdateFailed)
	}

	log := s.logger.WithOwner(string(entry.Origin.Kind()), entry.Origin.ID())
	if backfilled {
		log.Warn().Str("entry_id", entry.ID).Msg("owner had no entry; created one")
		s.publisher.PublishEntryLinked(ctx, entry)
	} else {
		log.Info().Str("entry_id", entry.ID).Msg("linked entry synced")
		s.publisher.PublishEntrySynced(ctx, entry)
	}

	return entry, nil
}

// DeleteLinked removes an owner with everything hanging off it, in this order:
// dependents (receipts), the entry, then the owner itself. deleteDependents may be nil.
func (s *LedgerService) DeleteLinked(
	ctx context.Context,
	origin domain.Origin,
	deleteDependents func(ctx context.Context) error,
	deleteOwner func(ctx context.Context) error,
) error {
	var entryID string

	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		if deleteDependents != nil {
			if err := deleteDependents(ctx); err != nil {
				return &ownerStepError{err: err}
			}
		}

		var err error
		if entryID, err = s.entries.DeleteByOrigin(ctx, origin); err != nil {
			return err
		}

		if err := deleteOwner(ctx); err != nil {
			return &ownerStepError{err: err}
		}
		return nil
	})

	log := s.logger.WithOwner(string(origin.Kind()), origin.ID())
	if err != nil {
		log.Error().Err(err).Msg("linked delete rolled back")
		return linkFailure(err, errors.LinkDeleteFailed)
	}

	log.Info().Str("entry_id", entryID).Msg("owner and linked entry deleted")
	s.publisher.PublishEntryUnlinked(ctx, origin, entryID)

	return nil
}

func (s *LedgerService) resolveCategory(ctx context.Context, link Link) (*domain.Category, error) {
	return s.categories.GetOrCreate(ctx, link.CategoryName, domain.KindExpense, link.CategoryDescription)
}

func newLinkedEntry(owner Owner, categoryID string) *domain.Entry {
	link := owner.LedgerLink()
	return &domain.Entry{
		Description:  link.Description,
		Amount:       link.Amount,
		Kind:         domain.KindExpense,
		Date:         link.Date,
		CategoryID:   categoryID,
		CategoryName: link.CategoryName,
		Origin:       owner.LedgerOrigin(),
	}
}

// ownerStepError marks a failure raised by the owner's own callbacks
type ownerStepError struct {
	err error
}

func (e *ownerStepError) Error() string { return e.err.Error() }

func (e *ownerStepError) Unwrap() error { return e.err }

// linkFailure passes caller mistakes raised by the owner step, such as a
// missing vehicle or an invalid amount, through unchanged. Everything else,
// including any failure while writing the entry, is wrapped in the
// operation's failure type.
func linkFailure(err error, wrap func(error) *errors.AppError) error {
	var step *ownerStepError
	if errors.As(err, &step) {
		err = step.err
		var appErr *errors.AppError
		if errors.As(err, &appErr) && appErr.IsClientError() {
			return err
		}
	}
	return wrap(err)
}
