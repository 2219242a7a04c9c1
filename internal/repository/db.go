package repository

import (
	"context"
	"errors"

	"github.com/purvaestates/voice-call-service/internal/domain"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no appointment matches the given key.
var ErrNotFound = errors.New("appointment not found")

// AppointmentRepository defines the persistence operations for call appointments.
// Updates are last-write-wins; callers enforce the status advance guard.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.CallAppointment) error

	GetByInquiryID(ctx context.Context, inquiryID string) (*domain.CallAppointment, error)
	GetByCallID(ctx context.Context, callID string) (*domain.CallAppointment, error)

	// UpdateStatus sets the lifecycle status and, when non-empty, the
	// provider call identifier for the appointment of the given inquiry.
	UpdateStatus(ctx context.Context, inquiryID string, status domain.AppointmentStatus, callID string) error

	// AppendNotes concatenates a note block onto the append-only notes log
	// and applies the status/call id in the same write.
	AppendNotes(ctx context.Context, inquiryID string, status domain.AppointmentStatus, notes, callID string) error

	// Schedule records the agreed slot and applies the given status in the
	// same write.
	Schedule(ctx context.Context, inquiryID string, status domain.AppointmentStatus, date, timeOfDay string) error
}

// RepositoryManager combines all repositories
type RepositoryManager interface {
	Appointments() AppointmentRepository

	// Health check
	Ping(ctx context.Context) error

	// Close connection
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM
type GormRepositoryManager struct {
	db              *gorm.DB
	appointmentRepo *GormAppointmentRepository
}

// NewGormRepositoryManager creates a new GORM repository manager
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:              db,
		appointmentRepo: NewGormAppointmentRepository(db),
	}
}

// Appointments returns the call appointment repository
func (m *GormRepositoryManager) Appointments() AppointmentRepository {
	return m.appointmentRepo
}

// Ping checks the database connection
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
