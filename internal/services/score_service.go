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

// Actions accepted by Respond.
const (
	ScoreActionApprove = "approve"
	ScoreActionReject  = "reject"
)

var (
	// ErrScoreRequestNotFound indicates the request id does not exist.
	ErrScoreRequestNotFound = apperrors.New("SCORE_REQUEST_NOT_FOUND", "Score request not found", http.StatusNotFound)
	// ErrScoreNoPartner rejects requests from unpaired users.
	ErrScoreNoPartner = apperrors.New("SCORE_NO_PARTNER", "You must have a partner to request score points", http.StatusBadRequest)
	// ErrScoreNotTarget rejects resolutions by anyone but the request's target.
	ErrScoreNotTarget = apperrors.New("SCORE_NOT_TARGET", "You can only respond to requests made to you", http.StatusForbidden)
	// ErrScoreAlreadyProcessed enforces the terminal-state rule.
	ErrScoreAlreadyProcessed = apperrors.New("SCORE_ALREADY_PROCESSED", "This request has already been processed", http.StatusBadRequest)
	// ErrScoreUnknownAction rejects actions other than approve/reject.
	ErrScoreUnknownAction = apperrors.New("SCORE_UNKNOWN_ACTION", "Invalid action. Must be 'approve' or 'reject'", http.StatusBadRequest)
	// ErrScoreConflict reports a storage-level race during resolution.
	ErrScoreConflict = apperrors.New("SCORE_CONFLICT", "Score request conflict, please retry", http.StatusConflict)
)

// CreateScoreRequestInput describes a proposed point transfer.
type CreateScoreRequestInput struct {
	Points int
	Reason string
}

// ScoreService manages the request/approval workflow for awarding points
// between partners. Scores only ever change through an approved request.
type ScoreService struct {
	db  *gorm.DB
	now func() time.Time
}

// ScoreOption customises the ScoreService.
type ScoreOption func(*ScoreService)

// WithScoreClock overrides the clock used for request timestamps.
func WithScoreClock(now func() time.Time) ScoreOption {
	return func(s *ScoreService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScoreService constructs a ScoreService instance.
func NewScoreService(db *gorm.DB, opts ...ScoreOption) (*ScoreService, error) {
	if db == nil {
		return nil, errors.New("score service: db is required")
	}

	svc := &ScoreService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateRequest opens a pending score request targeting the requester's
// current partner. No score changes until the partner approves.
func (s *ScoreService) CreateRequest(ctx context.Context, requesterID string, input CreateScoreRequestInput) (*models.ScoreRequest, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.Reason) == "" {
		return nil, apperrors.NewBadRequest("reason is required")
	}
	if input.Points == 0 {
		return nil, apperrors.NewBadRequest("points must be non-zero")
	}

	var requester models.User
	err := s.db.WithContext(ctx).First(&requester, "id = ?", requesterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("score service: load requester: %w", err)
	}

	if requester.PartnerID == nil {
		return nil, ErrScoreNoPartner
	}

	request := &models.ScoreRequest{
		RequesterID: requester.ID,
		TargetID:    *requester.PartnerID,
		Points:      input.Points,
		Reason:      strings.TrimSpace(input.Reason),
		Status:      models.ScoreRequestPending,
	}
	request.CreatedAt = s.now()

	if err := s.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, fmt.Errorf("score service: create request: %w", err)
	}

	return request, nil
}

// ListRequests returns every request the user sent or received, newest first.
func (s *ScoreService) ListRequests(ctx context.Context, userID string) ([]models.ScoreRequest, error) {
	ctx = ensureContext(ctx)

	var requests []models.ScoreRequest
	err := s.db.WithContext(ctx).
		Where("requester_id = ? OR target_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("score service: list requests: %w", err)
	}
	return requests, nil
}

// Respond resolves a pending request. Only the target may respond; approval
// flips the status and credits the requester's score inside one transaction,
// so a crash between the two writes cannot leave an approved request with an
// unapplied score. The status flip is conditional on the request still being
// pending; the loser of a concurrent respond race observes the terminal state.
func (s *ScoreService) Respond(ctx context.Context, userID, requestID, action string) (*models.ScoreRequest, error) {
	ctx = ensureContext(ctx)

	var request models.ScoreRequest
	err := s.db.WithContext(ctx).First(&request, "id = ?", requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScoreRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("score service: load request: %w", err)
	}

	if request.TargetID != userID {
		return nil, ErrScoreNotTarget
	}
	if request.Resolved() {
		return nil, ErrScoreAlreadyProcessed
	}

	var status string
	switch action {
	case ScoreActionApprove:
		status = models.ScoreRequestApproved
	case ScoreActionReject:
		status = models.ScoreRequestRejected
	default:
		return nil, ErrScoreUnknownAction
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ScoreRequest{}).
			Where("id = ? AND status = ?", request.ID, models.ScoreRequestPending).
			Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrScoreAlreadyProcessed
		}

		if status != models.ScoreRequestApproved {
			return nil
		}

		result = tx.Model(&models.User{}).
			Where("id = ?", request.RequesterID).
			Update("score", gorm.Expr("score + ?", request.Points))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrScoreConflict
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("score service: respond: %w", err)
	}

	request.Status = status
	metrics.ScoreDecisions.WithLabelValues(action).Inc()
	return &request, nil
}
