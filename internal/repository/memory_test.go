package repository

import (
	"context"
	"testing"
	"time"

	"github.com/purvaestates/voice-call-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryCreateAssignsID(t *testing.T) {
	repos := NewMemoryRepositoryManager()

	record := &domain.CallAppointment{InquiryID: "inq-1", Status: domain.StatusCalling}
	require.NoError(t, repos.Appointments().Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestMemoryRepositoryLatestRecordWins(t *testing.T) {
	repos := NewMemoryRepositoryManager()

	older := &domain.CallAppointment{
		InquiryID: "inq-1",
		Status:    domain.StatusFailed,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, repos.Appointments().Create(context.Background(), older))

	newer := &domain.CallAppointment{InquiryID: "inq-1", Status: domain.StatusCalling}
	require.NoError(t, repos.Appointments().Create(context.Background(), newer))

	got, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID, "lookups return the most recent attempt")
}

func TestMemoryRepositoryAppendNotes(t *testing.T) {
	repos := NewMemoryRepositoryManager()

	require.NoError(t, repos.Appointments().Create(context.Background(), &domain.CallAppointment{
		InquiryID: "inq-1",
		Status:    domain.StatusCalling,
		Notes:     "Call initiated to Rahul for Baner. Budget: 80L",
	}))

	err := repos.Appointments().AppendNotes(context.Background(), "inq-1", domain.StatusCompleted, "Lead wants a site visit.", "call-1")
	require.NoError(t, err)

	got, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, "call-1", got.CallID)
	assert.Equal(t, "Call initiated to Rahul for Baner. Budget: 80L\n\nLead wants a site visit.", got.Notes)
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	repos := NewMemoryRepositoryManager()

	_, err := repos.Appointments().GetByInquiryID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repos.Appointments().UpdateStatus(context.Background(), "missing", domain.StatusCompleted, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryUpdateStatusKeepsCallID(t *testing.T) {
	repos := NewMemoryRepositoryManager()

	require.NoError(t, repos.Appointments().Create(context.Background(), &domain.CallAppointment{
		InquiryID: "inq-1",
		CallID:    "call-1",
		Status:    domain.StatusCalling,
	}))

	// An empty call id on update must not blank the stored one.
	require.NoError(t, repos.Appointments().UpdateStatus(context.Background(), "inq-1", domain.StatusInProgress, ""))

	got, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, "call-1", got.CallID)
	assert.Equal(t, domain.StatusInProgress, got.Status)
}
