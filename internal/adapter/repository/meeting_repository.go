package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meetingloop/backend/internal/domain/entities"
	"github.com/meetingloop/backend/internal/domain/repositories"
)

type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).
		Preload("Agent").
		Where("id = ?", id).
		First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrMeetingNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

// notStartable lists the statuses a call.session_started must not
// overwrite. The update's WHERE clause carries the whole decision so
// concurrent duplicate events cannot both win.
var notStartable = []entities.MeetingStatus{
	entities.MeetingStatusCompleted,
	entities.MeetingStatusActive,
	entities.MeetingStatusCancelled,
	entities.MeetingStatusProcessing,
}

func (r *meetingRepository) TransitionToActive(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status NOT IN ?", id, notStartable).
		Updates(map[string]interface{}{
			"status":     entities.MeetingStatusActive,
			"started_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *meetingRepository) TransitionToProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status = ?", id, entities.MeetingStatusActive).
		Updates(map[string]interface{}{
			"status":   entities.MeetingStatusProcessing,
			"ended_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *meetingRepository) SetTranscriptURL(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Update("transcript_url", url)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *meetingRepository) SetRecordingURL(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Update("recording_url", url)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *meetingRepository) CompleteWithSummary(ctx context.Context, id uuid.UUID, summary string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  entities.MeetingStatusCompleted,
			"summary": summary,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
