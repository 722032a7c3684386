// internal/workers/guest-messaging/notify-escalation/models.go
package notifyescalation

const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Input arrives from the process after the generate-response worker decided
// to escalate.
type Input struct {
	ThreadID         string `json:"threadId"`
	EscalationReason string `json:"escalationReason"`
	Urgency          string `json:"urgency"`
	GuestMessage     string `json:"guestMessage"`
	GuestName        string `json:"guestName,omitempty"`
	PropertyName     string `json:"propertyName,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"notificationStatus"`
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"`
}
