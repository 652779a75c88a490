package notifsvc

import (
	"sync"

	"github.com/shulehq/darasa/core"
)

var (
	SentNotifications = make([]core.Notification, 0)
	mu                sync.Mutex
)

// consoleService logs notifications instead of delivering them. Sent
// notifications are recorded in SentNotifications for inspection.
type consoleService struct {
	log           core.Logger
	disableOutput bool
}

var _ core.NotificationService = (*consoleService)(nil)

func NewConsoleService(log core.Logger) core.NotificationService {
	return &consoleService{log: log}
}

func (svc consoleService) Send(notifs ...*core.Notification) {
	for _, notif := range notifs {
		go svc.send(notif)
	}
}

func (svc consoleService) send(notif *core.Notification) {
	if notif.RecipientID == "" || notif.Message == "" {
		return
	}
	if !svc.disableOutput {
		svc.log.Info(
			"notification: "+notif.Title,
			map[string]interface{}{
				"recipient": notif.RecipientID,
				"type":      notif.Type,
				"priority":  notif.Priority,
				"message":   notif.Message,
			},
		)
	}
	mu.Lock()
	SentNotifications = append(SentNotifications, *notif)
	mu.Unlock()
}
