package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/liuxin327/heartbeat/internal/models"
	apperrors "github.com/liuxin327/heartbeat/pkg/errors"
	"github.com/liuxin327/heartbeat/pkg/metrics"
)

var (
	// ErrSelfPairing rejects binding with the caller's own invitation code.
	ErrSelfPairing = apperrors.New("PAIRING_SELF", "Cannot bind to yourself", http.StatusBadRequest)
	// ErrInvitationNotFound indicates the code does not belong to any user.
	ErrInvitationNotFound = apperrors.New("PAIRING_CODE_NOT_FOUND", "Invalid invitation code", http.StatusNotFound)
	// ErrAlreadyPaired is returned when the caller already has a partner.
	ErrAlreadyPaired = apperrors.New("PAIRING_ALREADY_PAIRED", "You already have a partner", http.StatusConflict)
	// ErrTargetAlreadyPaired is returned when the invited user already has a partner.
	ErrTargetAlreadyPaired = apperrors.New("PAIRING_TARGET_PAIRED", "Partner already has a partner", http.StatusConflict)
	// ErrPairingConflict reports a commit-time race lost to a concurrent bind.
	ErrPairingConflict = apperrors.New("PAIRING_CONFLICT", "Binding conflict, please retry", http.StatusConflict)
)

// PairingService executes the one-time, symmetric, exclusive binding of two
// accounts. Both partner references always change together: no state exists
// where A references B without B referencing A back.
type PairingService struct {
	db  *gorm.DB
	now func() time.Time
}

// PairingOption customises the PairingService.
type PairingOption func(*PairingService)

// WithPairingClock overrides the clock used for bind timestamps.
func WithPairingClock(now func() time.Time) PairingOption {
	return func(s *PairingService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewPairingService constructs a PairingService instance.
func NewPairingService(db *gorm.DB, opts ...PairingOption) (*PairingService, error) {
	if db == nil {
		return nil, errors.New("pairing service: db is required")
	}

	svc := &PairingService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Bind pairs the acting user with the holder of the invitation code. Both
// rows are updated in one transaction; each write is conditional on the row
// still being unpaired, so a bind that races a concurrent attempt rolls back
// completely and reports a conflict rather than committing a partial pairing.
func (s *PairingService) Bind(ctx context.Context, actingUserID, invitationCode string) (*models.User, *models.User, error) {
	ctx = ensureContext(ctx)

	invitationCode = strings.TrimSpace(invitationCode)
	if invitationCode == "" {
		return nil, nil, apperrors.NewBadRequest("invitation code is required")
	}

	acting, err := s.loadUser(ctx, actingUserID)
	if err != nil {
		return nil, nil, err
	}

	if invitationCode == acting.InvitationCode {
		metrics.PairingAttempts.WithLabelValues("invalid").Inc()
		return nil, nil, ErrSelfPairing
	}

	var target models.User
	err = s.db.WithContext(ctx).First(&target, "invitation_code = ?", invitationCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.PairingAttempts.WithLabelValues("not_found").Inc()
		return nil, nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("pairing service: lookup invitation code: %w", err)
	}

	if acting.PartnerID != nil {
		metrics.PairingAttempts.WithLabelValues("conflict").Inc()
		return nil, nil, ErrAlreadyPaired
	}
	if target.PartnerID != nil {
		metrics.PairingAttempts.WithLabelValues("conflict").Inc()
		return nil, nil, ErrTargetAlreadyPaired
	}

	// Codes are unique, so this only triggers on a code/identity mismatch.
	if acting.ID == target.ID {
		metrics.PairingAttempts.WithLabelValues("invalid").Inc()
		return nil, nil, ErrSelfPairing
	}

	boundAt := s.now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Write in ascending id order so two binds over the same pair
		// contend on the same row first instead of deadlocking.
		first, second := acting, &target
		if first.ID > second.ID {
			first, second = second, first
		}

		if err := s.claimUnpaired(tx, first, s.partnerOf(first, acting, &target), boundAt); err != nil {
			return err
		}
		return s.claimUnpaired(tx, second, s.partnerOf(second, acting, &target), boundAt)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			metrics.PairingAttempts.WithLabelValues("conflict").Inc()
			return nil, nil, appErr
		}
		if isUniqueConstraintError(err) {
			metrics.PairingAttempts.WithLabelValues("conflict").Inc()
			return nil, nil, ErrPairingConflict
		}
		return nil, nil, fmt.Errorf("pairing service: bind: %w", err)
	}

	acting.PartnerID = &target.ID
	acting.BoundAt = &boundAt
	target.PartnerID = &acting.ID
	target.BoundAt = &boundAt

	metrics.PairingAttempts.WithLabelValues("success").Inc()
	return acting, &target, nil
}

// claimUnpaired links user to partner only if the row is still unpaired. A
// zero-row update means a concurrent bind won the race; the surrounding
// transaction rolls back so neither side keeps a half-applied pairing.
func (s *PairingService) claimUnpaired(tx *gorm.DB, user, partner *models.User, boundAt time.Time) error {
	result := tx.Model(&models.User{}).
		Where("id = ? AND partner_id IS NULL", user.ID).
		Updates(map[string]any{
			"partner_id": partner.ID,
			"bound_at":   boundAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPairingConflict
	}
	return nil
}

// partnerOf returns the opposite member of the (acting, target) pair.
func (s *PairingService) partnerOf(user, acting, target *models.User) *models.User {
	if user.ID == acting.ID {
		return target
	}
	return acting
}

func (s *PairingService) loadUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pairing service: load user: %w", err)
	}
	return &user, nil
}
