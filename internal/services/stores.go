package services

import (
	"time"

	"github.com/studiohub/studiohub/internal/models"
	"github.com/studiohub/studiohub/internal/policy"
)

// MessageStore is the persistence boundary for chat messages. Implemented
// by repositories.MessageRepository; faked in tests.
type MessageStore interface {
	Create(message *models.Message) error
	GetByID(id int64) (*models.Message, error)
	ListByProject(projectID uint) ([]models.Message, error)
	RecentAcrossProjects(projectIDs []uint, excludeSender uint, limit int) ([]models.Message, error)
	CreatedAfter(projectIDs []uint, cutoff time.Time, excludeSender uint) ([]models.Message, error)
	UpdateBody(id int64, body string) error
	Delete(id int64) error
}

// ProjectStore resolves projects and staffing.
type ProjectStore interface {
	StaffingSnapshot(projectID uint) (policy.StaffingSnapshot, error)
	ProjectIDsForUser(userID uint, role policy.Role) ([]uint, error)
	NamesByIDs(ids []uint) (map[uint]string, error)
}

// UserStore reads user profiles and role membership.
type UserStore interface {
	GetByID(id uint) (*models.User, error)
	GetByIDs(ids []uint) ([]models.User, error)
	ActiveIDsByRole(role policy.Role) ([]uint, error)
	ActiveUsers() ([]models.User, error)
}

// IDGenerator mints message IDs. Implemented by the snowflake generator so
// id order matches creation order.
type IDGenerator interface {
	NextID() (int64, error)
}

// Dispatcher carries post-commit message events to the notification
// fanout. The Kafka pipeline implements it when brokers are configured;
// otherwise the in-process dispatcher runs the fanout on the worker pool.
// Either way, message creation has already succeeded and been broadcast by
// the time a dispatcher sees the event.
type Dispatcher interface {
	MessageCreated(message MessageDTO)
}

// Emitter pushes realtime events. Implemented by the websocket hub.
// EmitToUser reaches every open connection of a user individually;
// EmitToProject is a single room broadcast.
type Emitter interface {
	EmitToUser(userID uint, event string, payload any)
	EmitToProject(projectID uint, event string, payload any)
}
