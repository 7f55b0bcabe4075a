package services

import (
	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"

	"github.com/studiohub/studiohub/internal/policy"
)

// NotificationPayload is the chat:notification event body pushed to each
// recipient's personal channel. It carries the full message so clients can
// dedup against the room broadcast by message id.
type NotificationPayload struct {
	Message     MessageDTO `json:"message"`
	ProjectName string     `json:"projectName"`
}

// NotificationService fans a newly created message out to the personal
// channels of every eligible recipient. It runs after the room broadcast
// and is best-effort: failures are logged and swallowed, never surfaced to
// the sender.
type NotificationService struct {
	projects ProjectStore
	users    UserStore
	emitter  Emitter
	log      *logger.Logger
}

func NewNotificationService(projects ProjectStore, users UserStore, emitter Emitter, log *logger.Logger) *NotificationService {
	return &NotificationService{
		projects: projects,
		users:    users,
		emitter:  emitter,
		log:      log,
	}
}

// Recipients resolves who gets notified about the message: every active
// admin when admins may read it, the staffed manager/team-lead/designer
// slots whose role is in the visibility set, and every task-assigned
// developer when developers may read it. The sender is always excluded.
func (s *NotificationService) Recipients(snap policy.StaffingSnapshot, visibility policy.RoleSet, senderID uint) ([]uint, error) {
	set := make(map[uint]bool)

	if visibility.Contains(policy.RoleAdmin) {
		// Queried fresh on every fanout; admin membership changes must be
		// picked up immediately.
		adminIDs, err := s.users.ActiveIDsByRole(policy.RoleAdmin)
		if err != nil {
			return nil, err
		}
		for _, id := range adminIDs {
			set[id] = true
		}
	}

	if visibility.Contains(policy.RoleManager) && snap.ManagerID != nil {
		set[*snap.ManagerID] = true
	}
	if visibility.Contains(policy.RoleTeamLead) && snap.TeamLeadID != nil {
		set[*snap.TeamLeadID] = true
	}
	if visibility.Contains(policy.RoleDesigner) && snap.DesignerID != nil {
		set[*snap.DesignerID] = true
	}
	if visibility.Contains(policy.RoleDeveloper) {
		for _, id := range snap.DeveloperIDs {
			set[id] = true
		}
	}

	delete(set, senderID)

	recipients := make([]uint, 0, len(set))
	for id := range set {
		recipients = append(recipients, id)
	}
	return recipients, nil
}

// Dispatch resolves recipients for the message and pushes a
// chat:notification to each personal channel. The message is already
// persisted and broadcast to its project room; nothing here may fail the
// primary flow.
func (s *NotificationService) Dispatch(message MessageDTO) {
	snap, err := s.projects.StaffingSnapshot(message.ProjectID)
	if err != nil {
		s.log.Warn("notification fanout: staffing lookup failed",
			zap.Uint("project_id", message.ProjectID),
			zap.Int64("message_id", message.ID),
			zap.Error(err),
		)
		return
	}

	recipients, err := s.Recipients(snap, message.VisibleToRoles, message.SenderID)
	if err != nil {
		s.log.Warn("notification fanout: recipient resolution failed",
			zap.Uint("project_id", message.ProjectID),
			zap.Int64("message_id", message.ID),
			zap.Error(err),
		)
		return
	}

	payload := NotificationPayload{Message: message, ProjectName: snap.ProjectName}
	for _, userID := range recipients {
		s.emitter.EmitToUser(userID, EventChatNotification, payload)
	}

	s.log.Debug("notification fanout complete",
		zap.Int64("message_id", message.ID),
		zap.Int("recipients", len(recipients)),
	)
}
