package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/liuxin327/heartbeat/internal/models"
	apperrors "github.com/liuxin327/heartbeat/pkg/errors"
)

// MaxCheckInPhotos caps the number of photos attached to one check-in.
const MaxCheckInPhotos = 3

// ErrCheckInNotFound indicates the requested check-in does not exist.
var ErrCheckInNotFound = apperrors.New("CHECKIN_NOT_FOUND", "Check-in not found", http.StatusNotFound)

// CreateCheckInInput describes a task completion record.
type CreateCheckInInput struct {
	TaskID    string
	Text      string
	PhotoURLs []string
}

// DashboardEntry pairs a task with the day's check-ins from both partners.
type DashboardEntry struct {
	Task    models.Task     `json:"task"`
	Mine    *models.CheckIn `json:"my_check_in"`
	Partner *models.CheckIn `json:"partner_check_in"`
}

// Dashboard summarises one day of activity for a user and their partner.
type Dashboard struct {
	Date    string           `json:"date"`
	Entries []DashboardEntry `json:"entries"`
}

// CheckInService records task completions and builds the daily dashboard.
type CheckInService struct {
	db  *gorm.DB
	now func() time.Time
}

// CheckInOption customises the CheckInService.
type CheckInOption func(*CheckInService)

// WithCheckInClock overrides the clock used for check-in timestamps.
func WithCheckInClock(now func() time.Time) CheckInOption {
	return func(s *CheckInService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewCheckInService constructs a CheckInService instance.
func NewCheckInService(db *gorm.DB, opts ...CheckInOption) (*CheckInService, error) {
	if db == nil {
		return nil, errors.New("checkin service: db is required")
	}

	svc := &CheckInService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create records a completion of the given task by the user.
func (s *CheckInService) Create(ctx context.Context, userID string, input CreateCheckInInput) (*models.CheckIn, error) {
	ctx = ensureContext(ctx)

	if len(input.PhotoURLs) > MaxCheckInPhotos {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("at most %d photos per check-in", MaxCheckInPhotos))
	}

	var task models.Task
	err := s.db.WithContext(ctx).First(&task, "id = ?", input.TaskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checkin service: load task: %w", err)
	}

	checkIn := &models.CheckIn{
		TaskID:    task.ID,
		UserID:    userID,
		Text:      strings.TrimSpace(input.Text),
		PhotoURLs: datatypes.NewJSONSlice(input.PhotoURLs),
	}
	checkIn.CreatedAt = s.now()

	if err := s.db.WithContext(ctx).Create(checkIn).Error; err != nil {
		return nil, fmt.Errorf("checkin service: create check-in: %w", err)
	}
	return checkIn, nil
}

// GetByID loads a check-in visible to the viewer.
func (s *CheckInService) GetByID(ctx context.Context, viewerID, checkInID string) (*models.CheckIn, error) {
	ctx = ensureContext(ctx)

	viewer, err := loadPairedViewer(ctx, s.db, viewerID)
	if err != nil {
		return nil, err
	}

	var checkIn models.CheckIn
	err = s.db.WithContext(ctx).First(&checkIn, "id = ?", checkInID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCheckInNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checkin service: load check-in: %w", err)
	}

	if err := assertPairVisibility(viewer, &checkIn); err != nil {
		return nil, err
	}
	return &checkIn, nil
}

// ListByTask returns the viewer's pair's check-ins for one task, newest first.
func (s *CheckInService) ListByTask(ctx context.Context, viewerID, taskID string) ([]models.CheckIn, error) {
	ctx = ensureContext(ctx)

	viewer, err := loadPairedViewer(ctx, s.db, viewerID)
	if err != nil {
		return nil, err
	}

	var task models.Task
	err = s.db.WithContext(ctx).First(&task, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checkin service: load task: %w", err)
	}

	var checkIns []models.CheckIn
	err = s.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Where(s.pairScope(viewer)).
		Order("created_at DESC").
		Find(&checkIns).Error
	if err != nil {
		return nil, fmt.Errorf("checkin service: list check-ins: %w", err)
	}
	return checkIns, nil
}

// Dashboard reports, for every active task, whether the user and their
// partner checked in on the given day.
func (s *CheckInService) Dashboard(ctx context.Context, userID string, date time.Time) (*Dashboard, error) {
	ctx = ensureContext(ctx)

	user, err := loadPairedViewer(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	err = s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("checkin service: list tasks: %w", err)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var checkIns []models.CheckIn
	err = s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Where(s.pairScope(user)).
		Order("created_at ASC").
		Find(&checkIns).Error
	if err != nil {
		return nil, fmt.Errorf("checkin service: list check-ins: %w", err)
	}

	mine := map[string]*models.CheckIn{}
	partner := map[string]*models.CheckIn{}
	for i := range checkIns {
		checkIn := &checkIns[i]
		if checkIn.UserID == user.ID {
			if _, ok := mine[checkIn.TaskID]; !ok {
				mine[checkIn.TaskID] = checkIn
			}
			continue
		}
		if _, ok := partner[checkIn.TaskID]; !ok {
			partner[checkIn.TaskID] = checkIn
		}
	}

	dashboard := &Dashboard{
		Date:    dayStart.Format("2006-01-02"),
		Entries: make([]DashboardEntry, 0, len(tasks)),
	}
	for _, task := range tasks {
		dashboard.Entries = append(dashboard.Entries, DashboardEntry{
			Task:    task,
			Mine:    mine[task.ID],
			Partner: partner[task.ID],
		})
	}
	return dashboard, nil
}

// pairScope restricts a check-in query to rows authored by the user or the
// user's partner.
func (s *CheckInService) pairScope(user *models.User) *gorm.DB {
	if user.PartnerID == nil {
		return s.db.Where("user_id = ?", user.ID)
	}
	return s.db.Where("user_id IN ?", []string{user.ID, *user.PartnerID})
}
