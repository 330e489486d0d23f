package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/ecoscan/internal/emission"
	"github.com/templui/ecoscan/internal/model"
	"github.com/templui/ecoscan/internal/observability"
	"github.com/templui/ecoscan/internal/storage"
	"github.com/templui/ecoscan/internal/validation"
)

// ActivityStore is the ordered per-key activity log.
type ActivityStore interface {
	Append(ctx context.Context, key string, a *model.Activity) error
	All(ctx context.Context, key string) ([]model.Activity, error)
}

type ActivityService struct {
	store      ActivityStore
	archive    storage.Storage
	storageKey string
	now        func() time.Time
}

// NewActivityService scopes every user's log under storageKey. archive
// receives a copy of each export and may be nil.
func NewActivityService(store ActivityStore, archive storage.Storage, storageKey string) *ActivityService {
	return &ActivityService{
		store:      store,
		archive:    archive,
		storageKey: storageKey,
		now:        time.Now,
	}
}

func (s *ActivityService) key(userID string) string {
	return s.storageKey + ":" + userID
}

// Log validates the form input, estimates the activity and appends it to
// the user's log.
func (s *ActivityService) Log(ctx context.Context, userID, category, description string) (*model.Activity, error) {
	category = strings.TrimSpace(category)
	description = strings.TrimSpace(description)

	err := validation.ValidateActivity(category, description)
	if err != nil {
		return nil, err
	}

	activity := &model.Activity{
		Category:    category,
		Description: description,
		CO2:         emission.Estimate(category, description),
		Timestamp:   s.now(),
	}

	err = s.store.Append(ctx, s.key(userID), activity)
	if err != nil {
		return nil, fmt.Errorf("failed to store activity: %w", err)
	}

	observability.RecordActivityLogged(activity.Category, activity.CO2, activity.Timestamp)
	slog.Info("activity logged", "user_id", userID, "category", activity.Category, "co2", activity.CO2, "activity_id", activity.ID)
	return activity, nil
}

// Activities returns the user's log oldest first.
func (s *ActivityService) Activities(ctx context.Context, userID string) ([]model.Activity, error) {
	return s.store.All(ctx, s.key(userID))
}

func (s *ActivityService) Dashboard(ctx context.Context, userID string) (model.DashboardSummary, error) {
	activities, err := s.Activities(ctx, userID)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	return Summarize(activities), nil
}

// Preview returns the estimate the form would store, or false while either
// field is still empty.
func (s *ActivityService) Preview(category, description string) (float64, bool) {
	category = strings.TrimSpace(category)
	description = strings.TrimSpace(description)
	if category == "" || description == "" {
		return 0, false
	}
	return emission.Estimate(category, description), true
}

type activityExport struct {
	ExportedAt time.Time        `json:"exported_at"`
	TotalCO2   float64          `json:"total_co2"`
	Activities []model.Activity `json:"activities"`
}

// Export renders the user's log as indented JSON and keeps a copy in the archive.
func (s *ActivityService) Export(ctx context.Context, userID string) ([]byte, error) {
	activities, err := s.Activities(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	data, err := json.MarshalIndent(activityExport{
		ExportedAt: now.UTC(),
		TotalCO2:   Summarize(activities).TotalCO2,
		Activities: activities,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	if s.archive != nil {
		path := fmt.Sprintf("exports/%s/%d.json", userID, now.Unix())
		err = s.archive.Save(ctx, path, bytes.NewReader(data))
		if err != nil {
			slog.Warn("failed to archive export", "error", err, "user_id", userID, "path", path)
		}
	}

	return data, nil
}
