package models

import "fmt"

// NotificationKind selects the message template for a notification trigger.
type NotificationKind string

const (
	NotificationNew      NotificationKind = "new"
	NotificationReminder NotificationKind = "reminder"
)

// ValidNotificationKind reports whether k is a recognized trigger type.
func ValidNotificationKind(k NotificationKind) bool {
	return k == NotificationNew || k == NotificationReminder
}

// NotificationMessage renders the title and body for an appointment
// notification of the given kind.
func NotificationMessage(kind NotificationKind, a *Appointment) (title, body string) {
	when := a.Date + " " + a.Time
	if kind == NotificationReminder {
		return "Reminder: Upcoming Appointment",
			fmt.Sprintf("%s • %s • in ~30 min (%s)", a.VisitorName, a.Subject, when)
	}
	return "New Appointment Scheduled",
		fmt.Sprintf("%s • %s • %s", a.VisitorName, a.Subject, when)
}

// NotifyRequest is the payload for the explicit notification trigger.
type NotifyRequest struct {
	AppointmentID string           `json:"appointment_id" binding:"required"`
	Type          NotificationKind `json:"type" binding:"required"`
}

// NotifyResult distinguishes "sent" from "nothing to send". NoRecipients is
// informational, not a failure.
type NotifyResult struct {
	Sent         int  `json:"sent"`
	Failed       int  `json:"failed"`
	NoRecipients bool `json:"no_recipients,omitempty"`
}
