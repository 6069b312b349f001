// Package loans implements the loan lifecycle: checkout, return, delete
// and listing. A book is available exactly when no loan row for it has a
// NULL returned_at.
package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library-api/pkg/models"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrLoanNotFound   = errors.New("loan not found")

	// ErrBookOnLoan is a conflict, never a not-found: the caller asked for
	// something that exists but is in the wrong state.
	ErrBookOnLoan = errors.New("book is already on loan")

	// ErrAlreadyReturned flags a second return of the same loan. Returning
	// twice is a usage error, not a no-op.
	ErrAlreadyReturned = errors.New("loan is already returned")
)

const (
	DefaultLoanDays = 14
	MaxLoanDays     = 60
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// clampDays falls back to the default outside (0, MaxLoanDays].
func clampDays(days int) int {
	if days <= 0 || days > MaxLoanDays {
		return DefaultLoanDays
	}
	return days
}

// Checkout creates a new active loan for the book/member pair. The whole
// operation runs in one transaction: the active-loan check and the insert
// must not be separated, and a racing insert that slips past the check is
// still rejected by the partial unique index on loans(book_id).
func (s *Service) Checkout(ctx context.Context, bookUid, memberUid string, loanDays int) (*models.Loan, error) {
	days := clampDays(loanDays)

	var loan models.Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Where("book_uid = ?", bookUid).First(&book).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("failed to find book %s: %w", bookUid, err)
		}

		var member models.Member
		if err := tx.Where("member_uid = ?", memberUid).First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return fmt.Errorf("failed to find member %s: %w", memberUid, err)
		}

		var active int64
		err := tx.Model(&models.Loan{}).
			Where("book_id = ? AND returned_at IS NULL", book.ID).
			Count(&active).Error
		if err != nil {
			return fmt.Errorf("failed to check active loans for book %s: %w", bookUid, err)
		}
		if active > 0 {
			return ErrBookOnLoan
		}

		now := time.Now().UTC()
		loan = models.Loan{
			LoanUid:  uuid.New().String(),
			BookID:   book.ID,
			MemberID: member.ID,
			LoanedAt: now,
			DueAt:    now.AddDate(0, 0, days),
		}
		if err := tx.Create(&loan).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrBookOnLoan
			}
			return fmt.Errorf("failed to create loan: %w", err)
		}

		loan.Book = book
		loan.Member = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Return marks a loan returned exactly once, freeing the book for the
// next checkout. returnedAt == nil means "now".
func (s *Service) Return(ctx context.Context, loanUid string, returnedAt *time.Time) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.WithContext(ctx).Preload("Book").Preload("Member").
		Where("loan_uid = ?", loanUid).First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to find loan %s: %w", loanUid, err)
	}

	if loan.ReturnedAt != nil {
		return nil, ErrAlreadyReturned
	}

	at := time.Now().UTC()
	if returnedAt != nil {
		at = returnedAt.UTC()
	}
	err = s.db.WithContext(ctx).Model(&loan).Update("returned_at", at).Error
	if err != nil {
		return nil, fmt.Errorf("failed to return loan %s: %w", loanUid, err)
	}

	loan.ReturnedAt = &at
	return &loan, nil
}

// Delete hard-deletes a loan regardless of its returned state. Deleting an
// active loan implicitly frees the book; availability is derived, so there
// is no extra bookkeeping. Returns false when the loan does not exist.
func (s *Service) Delete(ctx context.Context, loanUid string) (bool, error) {
	var loan models.Loan
	err := s.db.WithContext(ctx).Where("loan_uid = ?", loanUid).First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find loan %s: %w", loanUid, err)
	}

	if err := s.db.WithContext(ctx).Delete(&loan).Error; err != nil {
		return false, fmt.Errorf("failed to delete loan %s: %w", loanUid, err)
	}
	return true, nil
}

// List returns loans most recently loaned first. activeOnly == nil lists
// everything, true only outstanding loans, false only returned ones.
func (s *Service) List(ctx context.Context, activeOnly *bool) ([]models.Loan, error) {
	query := s.db.WithContext(ctx).Preload("Book").Preload("Member")
	if activeOnly != nil {
		if *activeOnly {
			query = query.Where("returned_at IS NULL")
		} else {
			query = query.Where("returned_at IS NOT NULL")
		}
	}

	var loans []models.Loan
	if err := query.Order("loaned_at DESC").Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

// GetByUid returns a single loan with its book and member loaded.
func (s *Service) GetByUid(ctx context.Context, loanUid string) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.WithContext(ctx).Preload("Book").Preload("Member").
		Where("loan_uid = ?", loanUid).First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to find loan %s: %w", loanUid, err)
	}
	return &loan, nil
}
