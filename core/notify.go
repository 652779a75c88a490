package core

import "time"

// Notification priorities
const (
	NotifPriorityLow    = "low"
	NotifPriorityNormal = "normal"
	NotifPriorityHigh   = "high"
	NotifPriorityUrgent = "urgent"
)

// Notification types
const (
	NotifTypeSystem       = "system"
	NotifTypeAssignment   = "assignment"
	NotifTypeGrade        = "grade"
	NotifTypeAnnouncement = "announcement"
	NotifTypeReminder     = "reminder"
)

type (
	// Notification is a message destined for a single recipient.
	// RelatedID/RelatedType weakly reference the entity the message is
	// about (an assignment, a grade record, ...); they are never followed
	// as live pointers.
	Notification struct {
		RecipientID string                 `json:"recipient_id"`
		Title       string                 `json:"title"`
		Message     string                 `json:"message"`
		Type        string                 `json:"type"`
		Priority    string                 `json:"priority"`
		RelatedID   string                 `json:"related_id,omitempty"`
		RelatedType string                 `json:"related_type,omitempty"`
		Metadata    map[string]interface{} `json:"metadata,omitempty"`
		CreatedAt   time.Time              `json:"created_at"`
	}

	// NotificationService is any service that can deliver notifications.
	// Delivery is best effort: failures must never surface to, or roll
	// back, the record mutation that triggered the notification.
	NotificationService interface {
		// Send delivers notifications concurrently.
		Send(notifs ...*Notification)
	}
)

func NewNotification(recipientID, title, message, notifType, priority string) *Notification {
	return &Notification{
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Type:        notifType,
		Priority:    priority,
		CreatedAt:   time.Now().UTC(),
	}
}

// Relate tags the notification with the entity it is about.
func (n *Notification) Relate(entityType, entityID string) *Notification {
	n.RelatedType = entityType
	n.RelatedID = entityID
	return n
}

// WithMetadata attaches free-form context for richer sinks.
func (n *Notification) WithMetadata(md map[string]interface{}) *Notification {
	n.Metadata = md
	return n
}
