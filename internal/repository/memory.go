package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/purvaestates/voice-call-service/internal/domain"
)

// MemoryRepositoryManager is an in-memory RepositoryManager used by tests and
// local development without Postgres.
type MemoryRepositoryManager struct {
	appointments *MemoryAppointmentRepository
}

// NewMemoryRepositoryManager creates an empty in-memory repository manager.
func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		appointments: &MemoryAppointmentRepository{
			byID: make(map[string]*domain.CallAppointment),
		},
	}
}

func (m *MemoryRepositoryManager) Appointments() AppointmentRepository { return m.appointments }
func (m *MemoryRepositoryManager) Ping(ctx context.Context) error     { return nil }
func (m *MemoryRepositoryManager) Close() error                       { return nil }

// MemoryAppointmentRepository implements AppointmentRepository over a map.
type MemoryAppointmentRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.CallAppointment
}

func (r *MemoryAppointmentRepository) Create(ctx context.Context, appointment *domain.CallAppointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if appointment.ID == "" {
		appointment.ID = uuid.New().String()
	}
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now()
	}
	appointment.UpdatedAt = time.Now()

	clone := *appointment
	r.byID[appointment.ID] = &clone
	return nil
}

func (r *MemoryAppointmentRepository) GetByInquiryID(ctx context.Context, inquiryID string) (*domain.CallAppointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(func(a *domain.CallAppointment) bool { return a.InquiryID == inquiryID })
}

func (r *MemoryAppointmentRepository) GetByCallID(ctx context.Context, callID string) (*domain.CallAppointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(func(a *domain.CallAppointment) bool { return a.CallID == callID && callID != "" })
}

func (r *MemoryAppointmentRepository) lookupLocked(match func(*domain.CallAppointment) bool) (*domain.CallAppointment, error) {
	var latest *domain.CallAppointment
	for _, a := range r.byID {
		if !match(a) {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *MemoryAppointmentRepository) UpdateStatus(ctx context.Context, inquiryID string, status domain.AppointmentStatus, callID string) error {
	return r.mutate(inquiryID, func(a *domain.CallAppointment) {
		a.Status = status
		if callID != "" {
			a.CallID = callID
		}
	})
}

func (r *MemoryAppointmentRepository) AppendNotes(ctx context.Context, inquiryID string, status domain.AppointmentStatus, notes, callID string) error {
	return r.mutate(inquiryID, func(a *domain.CallAppointment) {
		a.Status = status
		if a.Notes != "" {
			a.Notes = a.Notes + "\n\n" + notes
		} else {
			a.Notes = notes
		}
		if callID != "" {
			a.CallID = callID
		}
	})
}

func (r *MemoryAppointmentRepository) Schedule(ctx context.Context, inquiryID string, status domain.AppointmentStatus, date, timeOfDay string) error {
	return r.mutate(inquiryID, func(a *domain.CallAppointment) {
		a.Status = status
		a.AppointmentDate = date
		a.AppointmentTime = timeOfDay
	})
}

func (r *MemoryAppointmentRepository) mutate(inquiryID string, apply func(*domain.CallAppointment)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *domain.CallAppointment
	for _, a := range r.byID {
		if a.InquiryID != inquiryID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return ErrNotFound
	}
	apply(latest)
	latest.UpdatedAt = time.Now()
	return nil
}
