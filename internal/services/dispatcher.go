package services

import (
	"github.com/studiohub/studiohub/internal/utils"
)

// InProcessDispatcher runs the notification fanout on the worker pool when
// no broker is configured. Degraded mode: same semantics, no cross-process
// event log.
type InProcessDispatcher struct {
	notifications *NotificationService
	pool          *utils.WorkerPool
}

func NewInProcessDispatcher(notifications *NotificationService, pool *utils.WorkerPool) *InProcessDispatcher {
	return &InProcessDispatcher{notifications: notifications, pool: pool}
}

// MessageCreated hands the fanout to a worker so the request path never
// waits on recipient resolution.
func (d *InProcessDispatcher) MessageCreated(message MessageDTO) {
	if d.pool == nil {
		go d.notifications.Dispatch(message)
		return
	}
	d.pool.Submit(func() {
		d.notifications.Dispatch(message)
	})
}
