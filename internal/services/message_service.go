package services

import (
	"errors"
	"time"

	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"

	"github.com/studiohub/studiohub/internal/models"
	"github.com/studiohub/studiohub/internal/policy"
	"github.com/studiohub/studiohub/internal/repositories"
)

const (
	maxBodyLength = 5000
	// recentScanLimit bounds the cross-project scan feeding the recent and
	// unread queries.
	recentScanLimit = 100
	// unreadPreviewCap is fixed by the reminder bot contract.
	unreadPreviewCap = 5
	excerptLength    = 100
)

// MessageService orchestrates the access policy and the message store for
// every chat use case. It owns no transport; the REST controllers and the
// socket gateway both call into it.
type MessageService struct {
	messages MessageStore
	projects ProjectStore
	users    UserStore
	idgen    IDGenerator
	log      *logger.Logger
}

func NewMessageService(messages MessageStore, projects ProjectStore, users UserStore, idgen IDGenerator, log *logger.Logger) *MessageService {
	return &MessageService{
		messages: messages,
		projects: projects,
		users:    users,
		idgen:    idgen,
		log:      log,
	}
}

// CreateMessageRequest carries the sender-supplied fields of a new message.
// VisibleToRoles may be empty, in which case the role-dependent default
// applies.
type CreateMessageRequest struct {
	ProjectID      uint                `json:"projectId"`
	Body           string              `json:"message" binding:"required"`
	Attachments    []models.Attachment `json:"attachments"`
	VisibleToRoles []policy.Role       `json:"visibleToRoles"`
	Priority       models.Priority     `json:"priority"`
}

// Create persists a new message. Order matters: project lookup, access
// check, visibility resolution, then the write. The broadcast and fanout
// happen in the caller only after this returns.
func (s *MessageService) Create(authorID uint, authorRole policy.Role, req *CreateMessageRequest) (MessageDTO, error) {
	if len(req.Body) == 0 || len(req.Body) > maxBodyLength {
		return MessageDTO{}, errors.New("message body invalid")
	}

	snap, err := s.projects.StaffingSnapshot(req.ProjectID)
	if err != nil {
		return MessageDTO{}, mapStoreErr(err)
	}
	if !policy.CanAccessProjectChat(snap, authorID, authorRole) {
		return MessageDTO{}, ErrAccessDenied
	}

	visibility := policy.ResolveVisibility(authorRole, policy.RoleSetFrom(req.VisibleToRoles))

	mentions, err := s.extractMentions(req.Body, snap)
	if err != nil {
		// Mentions are decoration; a failed lookup must not block the send.
		s.log.Warn("mention extraction failed", zap.Uint("project_id", req.ProjectID), zap.Error(err))
		mentions = nil
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	id, err := s.idgen.NextID()
	if err != nil {
		return MessageDTO{}, err
	}

	message := &models.Message{
		ID:             id,
		ProjectID:      req.ProjectID,
		SenderID:       authorID,
		Body:           req.Body,
		Attachments:    req.Attachments,
		VisibleToRoles: visibility.Roles(),
		Mentions:       mentions,
		Priority:       priority,
	}

	if err := s.messages.Create(message); err != nil {
		return MessageDTO{}, err
	}

	if sender, err := s.users.GetByID(authorID); err == nil {
		message.Sender = sender
	}

	dto := toDTO(message)
	dto.ProjectName = snap.ProjectName
	return dto, nil
}

// List returns one page of a project's chat visible to the caller, oldest
// first. The store hands back every message of the project; visibility is a
// denormalized JSON tag set, so filtering and pagination happen here. O(N)
// in project size, a known ceiling at this product's scale.
func (s *MessageService) List(projectID, userID uint, role policy.Role, page, pageSize int) (MessagePage, error) {
	snap, err := s.projects.StaffingSnapshot(projectID)
	if err != nil {
		return MessagePage{}, mapStoreErr(err)
	}
	if !policy.CanAccessProjectChat(snap, userID, role) {
		return MessagePage{}, ErrAccessDenied
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	all, err := s.messages.ListByProject(projectID)
	if err != nil {
		return MessagePage{}, err
	}

	visible := policy.FilterVisible(all, role)
	total := len(visible)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	pageItems := visible[start:end]

	// The fetch is newest-first for pagination; the page itself renders
	// chronologically, so reverse it.
	items := make([]MessageDTO, 0, len(pageItems))
	for i := len(pageItems) - 1; i >= 0; i-- {
		items = append(items, toDTO(&pageItems[i]))
	}

	return MessagePage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// RecentForUser returns the newest messages, across every project the
// caller is staffed on, that the caller's role may read. The caller's own
// messages are excluded. Each item is annotated with its project name.
func (s *MessageService) RecentForUser(userID uint, role policy.Role, limit int) (RecentMessages, error) {
	if limit < 1 {
		limit = 20
	}

	projectIDs, err := s.projects.ProjectIDsForUser(userID, role)
	if err != nil {
		return RecentMessages{}, err
	}

	recent, err := s.messages.RecentAcrossProjects(projectIDs, userID, recentScanLimit)
	if err != nil {
		return RecentMessages{}, err
	}

	visible := policy.FilterVisible(recent, role)
	total := len(visible)
	if len(visible) > limit {
		visible = visible[:limit]
	}

	names, err := s.projects.NamesByIDs(projectIDs)
	if err != nil {
		return RecentMessages{}, err
	}

	items := make([]MessageDTO, 0, len(visible))
	for i := range visible {
		dto := toDTO(&visible[i])
		dto.ProjectName = names[visible[i].ProjectID]
		items = append(items, dto)
	}

	return RecentMessages{Items: items, Total: total}, nil
}

// UnreadSince counts the caller's unread messages from the last
// sinceMinutes and returns up to five truncated previews, newest first.
// Consumed by the reminder bot; the shape is contractual.
func (s *MessageService) UnreadSince(userID uint, role policy.Role, sinceMinutes int) (UnreadSummary, error) {
	if sinceMinutes < 1 {
		sinceMinutes = 60
	}

	projectIDs, err := s.projects.ProjectIDsForUser(userID, role)
	if err != nil {
		return UnreadSummary{}, err
	}

	cutoff := time.Now().Add(-time.Duration(sinceMinutes) * time.Minute)
	recent, err := s.messages.CreatedAfter(projectIDs, cutoff, userID)
	if err != nil {
		return UnreadSummary{}, err
	}

	visible := policy.FilterVisible(recent, role)

	names, err := s.projects.NamesByIDs(projectIDs)
	if err != nil {
		return UnreadSummary{}, err
	}

	previews := make([]UnreadPreview, 0, unreadPreviewCap)
	for i := range visible {
		if len(previews) == unreadPreviewCap {
			break
		}
		m := &visible[i]
		senderName := ""
		if m.Sender != nil {
			senderName = m.Sender.Name
		}
		previews = append(previews, UnreadPreview{
			ID:             m.ID,
			MessageExcerpt: excerpt(m.Body, excerptLength),
			SenderName:     senderName,
			ProjectName:    names[m.ProjectID],
			CreatedAt:      m.CreatedAt,
		})
	}

	return UnreadSummary{Count: len(visible), Messages: previews}, nil
}

// UsersWithUnread resolves every active user holding unread messages from
// the window. Polled by the reminder bot every few minutes.
func (s *MessageService) UsersWithUnread(sinceMinutes int) ([]UnreadUser, error) {
	users, err := s.users.ActiveUsers()
	if err != nil {
		return nil, err
	}

	var out []UnreadUser
	for i := range users {
		u := &users[i]
		summary, err := s.UnreadSince(u.ID, u.Role, sinceMinutes)
		if err != nil {
			s.log.Warn("unread scan failed for user", zap.Uint("user_id", u.ID), zap.Error(err))
			continue
		}
		if summary.Count == 0 {
			continue
		}
		out = append(out, UnreadUser{
			UserID: u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Count:  summary.Count,
			Latest: summary.Messages,
		})
	}
	return out, nil
}

// Update rewrites a message body. Only the sender may edit, admins
// included in the refusal.
func (s *MessageService) Update(messageID int64, newBody string, callerID uint) (MessageDTO, error) {
	if len(newBody) == 0 || len(newBody) > maxBodyLength {
		return MessageDTO{}, errors.New("message body invalid")
	}

	message, err := s.messages.GetByID(messageID)
	if err != nil {
		return MessageDTO{}, mapStoreErr(err)
	}
	if message.SenderID != callerID {
		return MessageDTO{}, ErrForbidden
	}

	if err := s.messages.UpdateBody(messageID, newBody); err != nil {
		return MessageDTO{}, mapStoreErr(err)
	}

	updated, err := s.messages.GetByID(messageID)
	if err != nil {
		return MessageDTO{}, mapStoreErr(err)
	}
	return toDTO(updated), nil
}

// Delete removes a message permanently. Sender or admin only. Returns the
// deleted message's project so the caller can broadcast the removal.
func (s *MessageService) Delete(messageID int64, callerID uint, callerRole policy.Role) (uint, error) {
	message, err := s.messages.GetByID(messageID)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	if callerRole != policy.RoleAdmin && message.SenderID != callerID {
		return 0, ErrForbidden
	}

	if err := s.messages.Delete(messageID); err != nil {
		return 0, err
	}
	return message.ProjectID, nil
}

// excerpt truncates a body to at most n runes.
func excerpt(body string, n int) string {
	runes := []rune(body)
	if len(runes) <= n {
		return body
	}
	return string(runes[:n])
}

func mapStoreErr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
