package call

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/purvaestates/voice-call-service/internal/domain"
	"github.com/purvaestates/voice-call-service/internal/repository"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"go.uber.org/zap"
)

// providerStatusMap folds the call-progress vocabularies of both providers
// into appointment statuses. Unknown provider statuses pass through as-is.
var providerStatusMap = map[string]domain.AppointmentStatus{
	"queued":      domain.StatusPending,
	"initiated":   domain.StatusCalling,
	"ringing":     domain.StatusCalling,
	"in-progress": domain.StatusInProgress,
	"answered":    domain.StatusInProgress,
	"forwarding":  domain.StatusInProgress,
	"ended":       domain.StatusCompleted,
	"completed":   domain.StatusCompleted,
	"failed":      domain.StatusFailed,
	"busy":        domain.StatusFailed,
	"no-answer":   domain.StatusFailed,
	"canceled":    domain.StatusFailed,
}

// MapProviderStatus translates a provider call status to an appointment
// status. Statuses outside the known vocabulary pass through unchanged so
// new provider states are visible in the record rather than swallowed.
func MapProviderStatus(providerStatus string) domain.AppointmentStatus {
	if mapped, ok := providerStatusMap[strings.ToLower(providerStatus)]; ok {
		return mapped
	}
	return domain.AppointmentStatus(providerStatus)
}

// StatusEvent is one call-progress notification from either provider.
type StatusEvent struct {
	InquiryID      string
	CallID         string
	ProviderStatus string
}

// ReconcileStatus folds a status event into the appointment record. Events
// that cannot be matched to any record are logged and dropped; stale events
// that would move the record backwards are ignored.
func (s *Service) ReconcileStatus(ctx context.Context, ev StatusEvent) error {
	record, err := s.resolveRecord(ctx, ev.InquiryID, ev.CallID)
	if err != nil {
		logger.Base().Warn("status event matched no appointment, dropping",
			zap.String("inquiry_id", ev.InquiryID),
			zap.String("call_id", ev.CallID),
			zap.String("provider_status", ev.ProviderStatus))
		return nil
	}

	next := MapProviderStatus(ev.ProviderStatus)
	if !domain.CanAdvance(record.Status, next) {
		logger.Base().Info("ignoring stale status event",
			zap.String("inquiry_id", record.InquiryID),
			zap.String("current", string(record.Status)),
			zap.String("incoming", string(next)))
		return nil
	}

	if err := s.repos.Appointments().UpdateStatus(ctx, record.InquiryID, next, ev.CallID); err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	logger.Base().Info("appointment status updated",
		zap.String("inquiry_id", record.InquiryID),
		zap.String("status", string(next)))
	return nil
}

// EndOfCallReport is the provider's post-call summary.
type EndOfCallReport struct {
	InquiryID       string
	CallID          string
	Summary         string
	Transcript      string
	EndedReason     string
	DurationSeconds int
}

// callCompletedReasons are the ended reasons that mean the conversation
// actually happened; everything else counts as a failed attempt.
var callCompletedReasons = map[string]bool{
	"hangup":              true,
	"customer-ended-call": true,
}

// HandleEndOfCall appends the call outcome to the record's notes and settles
// its terminal status.
func (s *Service) HandleEndOfCall(ctx context.Context, report EndOfCallReport) error {
	record, err := s.resolveRecord(ctx, report.InquiryID, report.CallID)
	if err != nil {
		logger.Base().Warn("end-of-call report matched no appointment, dropping",
			zap.String("inquiry_id", report.InquiryID),
			zap.String("call_id", report.CallID))
		return nil
	}

	final := domain.StatusFailed
	if callCompletedReasons[strings.ToLower(report.EndedReason)] {
		final = domain.StatusCompleted
	}
	if !domain.CanAdvance(record.Status, final) {
		final = record.Status
	}

	if err := s.repos.Appointments().AppendNotes(ctx, record.InquiryID, final, composeCallNotes(report), report.CallID); err != nil {
		return fmt.Errorf("failed to record call outcome: %w", err)
	}

	logger.Base().Info("call completed",
		zap.String("inquiry_id", record.InquiryID),
		zap.String("ended_reason", report.EndedReason),
		zap.Int("duration_seconds", report.DurationSeconds),
		zap.String("final_status", string(final)))
	return nil
}

func composeCallNotes(report EndOfCallReport) string {
	var b strings.Builder
	if report.Summary != "" {
		b.WriteString(report.Summary)
	} else {
		b.WriteString("Call ended.")
	}
	fmt.Fprintf(&b, "\n\nCall Duration: %d seconds", report.DurationSeconds)
	if report.EndedReason != "" {
		fmt.Fprintf(&b, "\nEnded Reason: %s", report.EndedReason)
	}
	if report.Transcript != "" {
		fmt.Fprintf(&b, "\n\nTranscript:\n%s", report.Transcript)
	}
	return b.String()
}

// ScheduleAppointment persists a site-visit slot agreed during the call and
// returns the confirmation text spoken back to the lead.
func (s *Service) ScheduleAppointment(ctx context.Context, inquiryID, callID, date, timeOfDay string) (string, error) {
	record, err := s.resolveRecord(ctx, inquiryID, callID)
	if err != nil {
		return "", fmt.Errorf("no appointment record for scheduling: %w", err)
	}

	next := domain.StatusScheduled
	if !domain.CanAdvance(record.Status, next) {
		// A retried schedule call after the record settled still keeps the
		// slot, but the terminal status stands.
		next = record.Status
	}

	if err := s.repos.Appointments().Schedule(ctx, record.InquiryID, next, date, timeOfDay); err != nil {
		return "", fmt.Errorf("failed to schedule appointment: %w", err)
	}

	logger.Base().Info("site visit scheduled",
		zap.String("inquiry_id", record.InquiryID),
		zap.String("date", date),
		zap.String("time", timeOfDay))
	return fmt.Sprintf("Appointment scheduled for %s at %s", date, timeOfDay), nil
}

// resolveRecord matches an event to its appointment: inquiry id first, then
// the record carrying the call id, then the correlation cache.
func (s *Service) resolveRecord(ctx context.Context, inquiryID, callID string) (*domain.CallAppointment, error) {
	if inquiryID != "" {
		if record, err := s.repos.Appointments().GetByInquiryID(ctx, inquiryID); err == nil {
			return record, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	if callID != "" {
		if record, err := s.repos.Appointments().GetByCallID(ctx, callID); err == nil {
			return record, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if corr, ok := s.correlations.Get(ctx, callID); ok && corr.InquiryID != "" {
			if record, err := s.repos.Appointments().GetByInquiryID(ctx, corr.InquiryID); err == nil {
				return record, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}
