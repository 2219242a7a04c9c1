package call

import (
	"context"
	"testing"

	"github.com/purvaestates/voice-call-service/internal/cache"
	"github.com/purvaestates/voice-call-service/internal/config"
	"github.com/purvaestates/voice-call-service/internal/domain"
	"github.com/purvaestates/voice-call-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatusTestService(t *testing.T) (*Service, repository.RepositoryManager) {
	t.Helper()
	repos := repository.NewMemoryRepositoryManager()
	svc := NewService(testConfig(config.ProviderVAPI), repos, &fakeVAPIDialer{}, nil, cache.NewCorrelationStore(config.RedisConfig{}))
	return svc, repos
}

func seedAppointment(t *testing.T, repos repository.RepositoryManager, inquiryID, callID string, status domain.AppointmentStatus) {
	t.Helper()
	err := repos.Appointments().Create(context.Background(), &domain.CallAppointment{
		InquiryID: inquiryID,
		CallID:    callID,
		Status:    status,
	})
	require.NoError(t, err)
}

func TestMapProviderStatus(t *testing.T) {
	cases := map[string]domain.AppointmentStatus{
		"queued":      domain.StatusPending,
		"ringing":     domain.StatusCalling,
		"in-progress": domain.StatusInProgress,
		"ended":       domain.StatusCompleted,
		"completed":   domain.StatusCompleted,
		"busy":        domain.StatusFailed,
		"no-answer":   domain.StatusFailed,
		"failed":      domain.StatusFailed,
	}
	for provider, want := range cases {
		assert.Equal(t, want, MapProviderStatus(provider), "provider status %q", provider)
	}

	// Unrecognized statuses pass through untouched.
	assert.Equal(t, domain.AppointmentStatus("some-new-state"), MapProviderStatus("some-new-state"))
}

func TestReconcileStatusAdvancesRecord(t *testing.T) {
	svc, repos := newStatusTestService(t)
	seedAppointment(t, repos, "inq-1", "call-1", domain.StatusCalling)

	err := svc.ReconcileStatus(context.Background(), StatusEvent{
		InquiryID:      "inq-1",
		CallID:         "call-1",
		ProviderStatus: "in-progress",
	})
	require.NoError(t, err)

	record, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, record.Status)
}

func TestReconcileStatusIgnoresStaleEvent(t *testing.T) {
	svc, repos := newStatusTestService(t)
	seedAppointment(t, repos, "inq-1", "call-1", domain.StatusCompleted)

	// A delayed in-progress event must not downgrade a settled record.
	err := svc.ReconcileStatus(context.Background(), StatusEvent{
		InquiryID:      "inq-1",
		ProviderStatus: "in-progress",
	})
	require.NoError(t, err)

	record, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, record.Status)
}

func TestReconcileStatusIsIdempotent(t *testing.T) {
	svc, repos := newStatusTestService(t)
	seedAppointment(t, repos, "inq-1", "call-1", domain.StatusCalling)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.ReconcileStatus(context.Background(), StatusEvent{
			InquiryID:      "inq-1",
			ProviderStatus: "ringing",
		}))
	}

	record, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCalling, record.Status)
}

func TestReconcileStatusDropsUnknownInquiry(t *testing.T) {
	svc, _ := newStatusTestService(t)

	// No record, no correlation: the event is logged and acknowledged.
	err := svc.ReconcileStatus(context.Background(), StatusEvent{
		CallID:         "call-unknown",
		ProviderStatus: "completed",
	})
	assert.NoError(t, err)
}

func TestReconcileStatusMatchesByCallID(t *testing.T) {
	svc, repos := newStatusTestService(t)
	seedAppointment(t, repos, "inq-1", "call-1", domain.StatusCalling)

	// Twilio status callbacks carry only the call SID.
	err := svc.ReconcileStatus(context.Background(), StatusEvent{
		CallID:         "call-1",
		ProviderStatus: "completed",
	})
	require.NoError(t, err)

	record, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, record.Status)
}

func TestHandleEndOfCallComposesNotes(t *testing.T) {
	svc, repos := newStatusTestService(t)
	seedAppointment(t, repos, "inq-1", "call-1", domain.StatusInProgress)

	err := svc.HandleEndOfCall(context.Background(), EndOfCallReport{
		InquiryID:       "inq-1",
		CallID:          "call-1",
		Summary:         "Customer interested in a 2BHK in Baner.",
		Transcript:      "AI: Namaste!\nUser: Hello",
		EndedReason:     "customer-ended-call",
		DurationSeconds: 94,
	})
	require.NoError(t, err)

	record, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, record.Status)
	assert.Contains(t, record.Notes, "Customer interested in a 2BHK in Baner.")
	assert.Contains(t, record.Notes, "Call Duration: 94 seconds")
	assert.Contains(t, record.Notes, "Ended Reason: customer-ended-call")
	assert.Contains(t, record.Notes, "Transcript:\nAI: Namaste!")
}

func TestHandleEndOfCallFailureReason(t *testing.T) {
	svc, repos := newStatusTestService(t)
	seedAppointment(t, repos, "inq-1", "call-1", domain.StatusCalling)

	err := svc.HandleEndOfCall(context.Background(), EndOfCallReport{
		InquiryID:   "inq-1",
		EndedReason: "no-answer",
	})
	require.NoError(t, err)

	record, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, record.Status)
	assert.Contains(t, record.Notes, "Call ended.")
}

func TestHandleEndOfCallKeepsScheduledStatus(t *testing.T) {
	svc, repos := newStatusTestService(t)
	seedAppointment(t, repos, "inq-1", "call-1", domain.StatusScheduled)

	// Notes still get appended and the schedule survives the final update.
	err := svc.HandleEndOfCall(context.Background(), EndOfCallReport{
		InquiryID:   "inq-1",
		Summary:     "Scheduled a site visit.",
		EndedReason: "hangup",
	})
	require.NoError(t, err)

	record, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, record.Status)
	assert.Contains(t, record.Notes, "Scheduled a site visit.")
}

func TestScheduleAppointment(t *testing.T) {
	svc, repos := newStatusTestService(t)
	seedAppointment(t, repos, "inq-1", "call-1", domain.StatusInProgress)

	result, err := svc.ScheduleAppointment(context.Background(), "inq-1", "call-1", "2026-09-02", "11:30 AM")
	require.NoError(t, err)
	assert.Equal(t, "Appointment scheduled for 2026-09-02 at 11:30 AM", result)

	record, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, record.Status)
	assert.Equal(t, "2026-09-02", record.AppointmentDate)
	assert.Equal(t, "11:30 AM", record.AppointmentTime)
}

func TestScheduleAppointmentKeepsTerminalStatus(t *testing.T) {
	svc, repos := newStatusTestService(t)
	seedAppointment(t, repos, "inq-1", "call-1", domain.StatusCompleted)

	// A retried schedule call after the record settled keeps the slot but
	// must not pull the record back to scheduled.
	result, err := svc.ScheduleAppointment(context.Background(), "inq-1", "call-1", "2026-09-02", "11:30 AM")
	require.NoError(t, err)
	assert.Equal(t, "Appointment scheduled for 2026-09-02 at 11:30 AM", result)

	record, err := repos.Appointments().GetByInquiryID(context.Background(), "inq-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, record.Status)
	assert.Equal(t, "2026-09-02", record.AppointmentDate)
	assert.Equal(t, "11:30 AM", record.AppointmentTime)
}

func TestScheduleAppointmentUnknownInquiry(t *testing.T) {
	svc, _ := newStatusTestService(t)

	_, err := svc.ScheduleAppointment(context.Background(), "missing", "", "2026-09-02", "11:30 AM")
	assert.Error(t, err)
}
