package models

import (
	"time"
)

// Appointment represents one scheduled visitor meeting.
// Date and Time together define the due instant; they are kept as separate
// strings ("2006-01-02" and "15:04") to mirror how clients submit them.
type Appointment struct {
	ID           string    `json:"id" db:"id"`
	VisitorName  string    `json:"visitor_name" db:"visitor_name"`
	Subject      string    `json:"subject" db:"subject"`
	Date         string    `json:"date" db:"date"`
	Time         string    `json:"time" db:"time"`
	Notes        string    `json:"notes,omitempty" db:"notes"`
	CreatedBy    string    `json:"created_by" db:"created_by"`
	ReminderSent bool      `json:"reminder_sent" db:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DueAt resolves the appointment's due instant in the given location.
func (a *Appointment) DueAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02T15:04", a.Date+"T"+a.Time, loc)
}

// SortKey is the client-side ordering key. A plain string comparison of
// date+time sorts chronologically without needing a composite index.
func (a *Appointment) SortKey() string {
	return a.Date + "T" + a.Time
}

// AppointmentScope selects which slice of the schedule a listing covers.
type AppointmentScope string

const (
	ScopeAll      AppointmentScope = "all"
	ScopeToday    AppointmentScope = "today"
	ScopeUpcoming AppointmentScope = "upcoming"
)

// ValidScope reports whether s is a recognized listing scope.
func ValidScope(s AppointmentScope) bool {
	switch s {
	case ScopeAll, ScopeToday, ScopeUpcoming:
		return true
	}
	return false
}

// CreateAppointmentRequest is the payload for creating an appointment.
type CreateAppointmentRequest struct {
	VisitorName string `json:"visitor_name" binding:"required"`
	Subject     string `json:"subject" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
	Notes       string `json:"notes"`
}

// UpdateAppointmentRequest is the payload for editing an appointment.
// Any successful edit restarts the reminder lifecycle.
type UpdateAppointmentRequest struct {
	VisitorName string `json:"visitor_name" binding:"required"`
	Subject     string `json:"subject" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
	Notes       string `json:"notes"`
}
