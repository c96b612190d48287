package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/liuxin327/heartbeat/internal/models"
	apperrors "github.com/liuxin327/heartbeat/pkg/errors"
)

var (
	// ErrCommentNotFound indicates the comment does not exist or is not the caller's.
	ErrCommentNotFound = apperrors.New("COMMENT_NOT_FOUND", "Comment not found", http.StatusNotFound)
	// ErrAlreadyCommented enforces the one-comment-per-check-in rule.
	ErrAlreadyCommented = apperrors.New("COMMENT_EXISTS", "You have already commented on this check-in", http.StatusBadRequest)
)

// CommentService manages partner comments on check-ins.
type CommentService struct {
	db *gorm.DB
}

// NewCommentService constructs a CommentService instance.
func NewCommentService(db *gorm.DB) (*CommentService, error) {
	if db == nil {
		return nil, errors.New("comment service: db is required")
	}
	return &CommentService{db: db}, nil
}

// Create adds the user's comment to a check-in within their pair. Each user
// may comment on a given check-in once; the composite unique index backs the
// rule under concurrent requests.
func (s *CommentService) Create(ctx context.Context, userID, checkInID, content string) (*models.Comment, error) {
	ctx = ensureContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewBadRequest("content is required")
	}

	checkIn, viewer, err := s.visibleCheckIn(ctx, userID, checkInID)
	if err != nil {
		return nil, err
	}

	var count int64
	err = s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("check_in_id = ? AND user_id = ?", checkIn.ID, viewer.ID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("comment service: check existing comment: %w", err)
	}
	if count > 0 {
		return nil, ErrAlreadyCommented
	}

	comment := &models.Comment{
		CheckInID: checkIn.ID,
		UserID:    viewer.ID,
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAlreadyCommented
		}
		return nil, fmt.Errorf("comment service: create comment: %w", err)
	}
	return comment, nil
}

// List returns a check-in's comments in posting order.
func (s *CommentService) List(ctx context.Context, userID, checkInID string) ([]models.Comment, error) {
	ctx = ensureContext(ctx)

	checkIn, _, err := s.visibleCheckIn(ctx, userID, checkInID)
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	err = s.db.WithContext(ctx).
		Where("check_in_id = ?", checkIn.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("comment service: list comments: %w", err)
	}
	return comments, nil
}

// Delete removes the caller's own comment.
func (s *CommentService) Delete(ctx context.Context, userID, commentID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", commentID, userID).
		Delete(&models.Comment{})
	if result.Error != nil {
		return fmt.Errorf("comment service: delete comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (s *CommentService) visibleCheckIn(ctx context.Context, userID, checkInID string) (*models.CheckIn, *models.User, error) {
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
		return nil, nil, fmt.Errorf("comment service: load check-in: %w", err)
	}

	if err := assertPairVisibility(viewer, &checkIn); err != nil {
		return nil, nil, err
	}
	return &checkIn, viewer, nil
}
