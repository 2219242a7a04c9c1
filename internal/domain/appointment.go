package domain

import (
	"time"
)

// AppointmentStatus is the lifecycle status of a call appointment.
// Statuses advance monotonically; provider events never roll one back.
type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "pending"
	StatusCalling    AppointmentStatus = "calling"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusCompleted  AppointmentStatus = "completed"
	StatusFailed     AppointmentStatus = "failed"
)

// statusRank orders statuses for the monotonic advance guard. completed and
// failed share the top rank: both are terminal, and a repeat of either (or a
// late flip between them) is last-write-wins.
var statusRank = map[AppointmentStatus]int{
	StatusPending:    0,
	StatusCalling:    1,
	StatusInProgress: 2,
	StatusScheduled:  3,
	StatusCompleted:  4,
	StatusFailed:     4,
}

// Rank returns the ordering position of the status. Statuses outside the
// fixed vocabulary (provider passthrough values) rank alongside in-progress
// so they never displace a scheduled or terminal status.
func (s AppointmentStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return statusRank[StatusInProgress]
}

// Terminal reports whether the status ends the appointment lifecycle.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanAdvance reports whether a transition from -> to is allowed under the
// monotonic guard: equal or higher rank applies, lower rank is a stale event.
func CanAdvance(from, to AppointmentStatus) bool {
	return to.Rank() >= from.Rank()
}

// Language selects the conversation script. Unrecognized values fall back to
// the default (Hindi) everywhere.
type Language string

const (
	LanguageHindi   Language = "hindi"
	LanguageEnglish Language = "english"
	LanguageMarathi Language = "marathi"

	DefaultLanguage = LanguageHindi
)

// NormalizeLanguage maps an arbitrary selector onto the fixed enumeration.
func NormalizeLanguage(s string) Language {
	switch Language(s) {
	case LanguageHindi, LanguageEnglish, LanguageMarathi:
		return Language(s)
	default:
		return DefaultLanguage
	}
}

// CallAppointment tracks a single outbound-call attempt for a lead inquiry.
// The call initiator is the sole creator; the status reconciler and webhook
// event router are the sole mutators; nothing deletes rows.
type CallAppointment struct {
	ID               string            `json:"id" gorm:"column:id;primaryKey"`
	InquiryID        string            `json:"inquiry_id" gorm:"column:inquiry_id;index"`
	CallID           string            `json:"call_id" gorm:"column:call_id;index"`
	CustomerName     string            `json:"customer_name" gorm:"column:customer_name"`
	CustomerPhone    string            `json:"customer_phone" gorm:"column:customer_phone"`
	PropertyLocation string            `json:"property_location" gorm:"column:property_location"`
	Budget           string            `json:"budget" gorm:"column:budget"`
	Language         Language          `json:"language" gorm:"column:language"`
	Status           AppointmentStatus `json:"status" gorm:"column:status"`
	Notes            string            `json:"notes" gorm:"column:notes;type:text"`
	AppointmentDate  string            `json:"appointment_date" gorm:"column:appointment_date"`
	AppointmentTime  string            `json:"appointment_time" gorm:"column:appointment_time"`
	CreatedAt        time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt        time.Time         `json:"updated_at" gorm:"column:updated_at"`
}

func (CallAppointment) TableName() string {
	return "call_appointments"
}
