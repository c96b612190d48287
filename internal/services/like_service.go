package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/liuxin327/heartbeat/internal/models"
	apperrors "github.com/liuxin327/heartbeat/pkg/errors"
)

var (
	// ErrAlreadyLiked enforces the one-like-per-check-in rule.
	ErrAlreadyLiked = apperrors.New("LIKE_EXISTS", "You have already liked this check-in", http.StatusBadRequest)
	// ErrLikeNotFound is returned when unliking a check-in without a prior like.
	ErrLikeNotFound = apperrors.New("LIKE_NOT_FOUND", "You have not liked this check-in", http.StatusNotFound)
)

// LikeService manages likes on check-ins within a pair.
type LikeService struct {
	db *gorm.DB
}

// NewLikeService constructs a LikeService instance.
func NewLikeService(db *gorm.DB) (*LikeService, error) {
	if db == nil {
		return nil, errors.New("like service: db is required")
	}
	return &LikeService{db: db}, nil
}

// Like records the user's like on a check-in within their pair. The composite
// unique index backs the once-per-user rule under concurrent requests.
func (s *LikeService) Like(ctx context.Context, userID, checkInID string) (*models.Like, error) {
	ctx = ensureContext(ctx)

	checkIn, viewer, err := s.visibleCheckIn(ctx, userID, checkInID)
	if err != nil {
		return nil, err
	}

	like := &models.Like{
		CheckInID: checkIn.ID,
		UserID:    viewer.ID,
	}
	if err := s.db.WithContext(ctx).Create(like).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAlreadyLiked
		}
		return nil, fmt.Errorf("like service: create like: %w", err)
	}
	return like, nil
}

// Unlike removes the user's like from a check-in.
func (s *LikeService) Unlike(ctx context.Context, userID, checkInID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("check_in_id = ? AND user_id = ?", checkInID, userID).
		Delete(&models.Like{})
	if result.Error != nil {
		return fmt.Errorf("like service: delete like: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLikeNotFound
	}
	return nil
}

// List returns who liked a check-in.
func (s *LikeService) List(ctx context.Context, userID, checkInID string) ([]models.Like, error) {
	ctx = ensureContext(ctx)

	checkIn, _, err := s.visibleCheckIn(ctx, userID, checkInID)
	if err != nil {
		return nil, err
	}

	var likes []models.Like
	err = s.db.WithContext(ctx).
		Where("check_in_id = ?", checkIn.ID).
		Order("created_at ASC").
		Find(&likes).Error
	if err != nil {
		return nil, fmt.Errorf("like service: list likes: %w", err)
	}
	return likes, nil
}

func (s *LikeService) visibleCheckIn(ctx context.Context, userID, checkInID string) (*models.CheckIn, *models.User, error) {
	viewer, err := loadPairedViewer(ctx, s.db, userID)
	if err != nil {
		return nil, nil, err
	}

	var checkIn models.CheckIn
	err = s.db.WithContext(ctx).First(&checkIn, "id = ?", checkInID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrCheckInNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("like service: load check-in: %w", err)
	}

	if err := assertPairVisibility(viewer, &checkIn); err != nil {
		return nil, nil, err
	}
	return &checkIn, viewer, nil
}
