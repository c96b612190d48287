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

// ErrCheckInNotVisible hides check-ins outside the viewer's pair.
var ErrCheckInNotVisible = apperrors.New("CHECKIN_NOT_VISIBLE", "You can only view check-ins within your pair", http.StatusForbidden)

// loadPairedViewer loads the user and verifies they are paired. Interaction
// endpoints require a partner because check-ins are only shared inside a pair.
func loadPairedViewer(ctx context.Context, db *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load viewer: %w", err)
	}
	return &user, nil
}

// assertPairVisibility confirms the check-in belongs to the viewer or the
// viewer's partner.
func assertPairVisibility(viewer *models.User, checkIn *models.CheckIn) error {
	if checkIn.UserID == viewer.ID {
		return nil
	}
	if viewer.PartnerID != nil && checkIn.UserID == *viewer.PartnerID {
		return nil
	}
	return ErrCheckInNotVisible
}
