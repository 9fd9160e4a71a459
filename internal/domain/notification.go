package domain

import "time"

// NotificationType enumerates supported notification kinds.
type NotificationType string

const (
	NotificationEscalation NotificationType = "ESCALATION"
	NotificationSLABreach  NotificationType = "SLA_BREACH"
	NotificationAutoClose  NotificationType = "AUTO_CLOSE"
	NotificationSecurity   NotificationType = "SECURITY"
)

// Notification is a persisted message addressed either to a specific
// user or to every holder of a role.
type Notification struct {
	ID            string
	RecipientID   *string
	RecipientRole *UserRole
	Type          NotificationType
	Title         string
	Message       string
	RelatedEntity *string
	ReadAt        *time.Time
	CreatedAt     time.Time
}
