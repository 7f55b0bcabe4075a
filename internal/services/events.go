package services

// Realtime event names shared by the gateway, the REST handlers and the
// notification fanout. Inbound and outbound chat events use the same names.
const (
	EventJoinProject  = "join:project"
	EventJoinUser     = "join:user"
	EventLeaveProject = "leave:project"

	EventChatMessage        = "chat:message"
	EventChatMessageUpdated = "chat:message:updated"
	EventChatMessageDeleted = "chat:message:deleted"
	EventChatTyping         = "chat:typing"
	EventChatNotification   = "chat:notification"
	EventChatReminder       = "chat:reminder"
)
