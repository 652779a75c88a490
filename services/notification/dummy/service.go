package dummynotif

import (
	"sync"

	"github.com/shulehq/darasa/core"
)

// Service records notifications synchronously so tests can assert on
// them without races.
type Service struct {
	mu   sync.Mutex
	sent []core.Notification
}

var _ core.NotificationService = (*Service)(nil)

func NewService() *Service {
	return &Service{}
}

func (svc *Service) Send(notifs ...*core.Notification) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, notif := range notifs {
		svc.sent = append(svc.sent, *notif)
	}
}

// Sent returns a copy of everything sent so far.
func (svc *Service) Sent() []core.Notification {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	sent := make([]core.Notification, len(svc.sent))
	copy(sent, svc.sent)
	return sent
}

// Reset clears the recorded notifications.
func (svc *Service) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
}
