package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/purvaestates/voice-call-service/internal/domain"
	"gorm.io/gorm"
)

// GormAppointmentRepository handles database operations for call appointments
type GormAppointmentRepository struct {
	db *gorm.DB
}

// NewGormAppointmentRepository creates a new appointment repository
func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

// Create creates a new call appointment
func (r *GormAppointmentRepository) Create(ctx context.Context, appointment *domain.CallAppointment) error {
	if appointment.ID == "" {
		appointment.ID = uuid.New().String()
	}
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now()
	}
	appointment.UpdatedAt = time.Now()

	if err := r.db.WithContext(ctx).Create(appointment).Error; err != nil {
		return fmt.Errorf("failed to create call appointment: %w", err)
	}
	return nil
}

// GetByInquiryID retrieves the appointment for an inquiry. One appointment
// per inquiry is assumed, not enforced; the most recent row wins.
func (r *GormAppointmentRepository) GetByInquiryID(ctx context.Context, inquiryID string) (*domain.CallAppointment, error) {
	var appointment domain.CallAppointment
	err := r.db.WithContext(ctx).
		Where("inquiry_id = ?", inquiryID).
		Order("created_at DESC").
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment by inquiry id: %w", err)
	}
	return &appointment, nil
}

// GetByCallID retrieves the appointment by the provider call identifier.
func (r *GormAppointmentRepository) GetByCallID(ctx context.Context, callID string) (*domain.CallAppointment, error) {
	var appointment domain.CallAppointment
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("created_at DESC").
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment by call id: %w", err)
	}
	return &appointment, nil
}

// UpdateStatus sets the status (and call id when given) for the inquiry's appointment.
func (r *GormAppointmentRepository) UpdateStatus(ctx context.Context, inquiryID string, status domain.AppointmentStatus, callID string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if callID != "" {
		updates["call_id"] = callID
	}

	result := r.db.WithContext(ctx).
		Model(&domain.CallAppointment{}).
		Where("inquiry_id = ?", inquiryID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update appointment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendNotes concatenates a note block and applies the status/call id in one write.
func (r *GormAppointmentRepository) AppendNotes(ctx context.Context, inquiryID string, status domain.AppointmentStatus, notes, callID string) error {
	appointment, err := r.GetByInquiryID(ctx, inquiryID)
	if err != nil {
		return err
	}

	combined := notes
	if appointment.Notes != "" {
		combined = appointment.Notes + "\n\n" + notes
	}

	updates := map[string]interface{}{
		"status":     status,
		"notes":      combined,
		"updated_at": time.Now(),
	}
	if callID != "" {
		updates["call_id"] = callID
	}

	if err := r.db.WithContext(ctx).
		Model(&domain.CallAppointment{}).
		Where("id = ?", appointment.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to append appointment notes: %w", err)
	}
	return nil
}

// Schedule records the agreed slot for the inquiry's appointment.
func (r *GormAppointmentRepository) Schedule(ctx context.Context, inquiryID string, status domain.AppointmentStatus, date, timeOfDay string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.CallAppointment{}).
		Where("inquiry_id = ?", inquiryID).
		Updates(map[string]interface{}{
			"status":           status,
			"appointment_date": date,
			"appointment_time": timeOfDay,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to schedule appointment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
