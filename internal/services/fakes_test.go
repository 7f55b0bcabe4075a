package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"

	"github.com/studiohub/studiohub/internal/models"
	"github.com/studiohub/studiohub/internal/policy"
	"github.com/studiohub/studiohub/internal/repositories"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

// fakeMessageStore keeps messages in memory, newest first on reads, the
// same contract the repository provides.
type fakeMessageStore struct {
	mu       sync.Mutex
	messages map[int64]*models.Message
	failNext error
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[int64]*models.Message)}
}

func (s *fakeMessageStore) Create(message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	if message.UpdatedAt.IsZero() {
		message.UpdatedAt = message.CreatedAt
	}
	copied := *message
	s.messages[message.ID] = &copied
	return nil
}

func (s *fakeMessageStore) GetByID(id int64) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (s *fakeMessageStore) ListByProject(projectID uint) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.ProjectID == projectID {
			out = append(out, *m)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *fakeMessageStore) RecentAcrossProjects(projectIDs []uint, excludeSender uint, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inScope := make(map[uint]bool, len(projectIDs))
	for _, id := range projectIDs {
		inScope[id] = true
	}
	var out []models.Message
	for _, m := range s.messages {
		if inScope[m.ProjectID] && m.SenderID != excludeSender {
			out = append(out, *m)
		}
	}
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeMessageStore) CreatedAfter(projectIDs []uint, cutoff time.Time, excludeSender uint) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inScope := make(map[uint]bool, len(projectIDs))
	for _, id := range projectIDs {
		inScope[id] = true
	}
	var out []models.Message
	for _, m := range s.messages {
		if inScope[m.ProjectID] && m.SenderID != excludeSender && m.CreatedAt.After(cutoff) {
			out = append(out, *m)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *fakeMessageStore) UpdateBody(id int64, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return repositories.ErrNotFound
	}
	m.Body = body
	m.UpdatedAt = time.Now()
	return nil
}

func (s *fakeMessageStore) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, id)
	return nil
}

func sortNewestFirst(out []models.Message) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}

// fakeProjectStore serves staffing snapshots from a fixed map.
type fakeProjectStore struct {
	snapshots map[uint]policy.StaffingSnapshot
	failNext  error
}

func newFakeProjectStore(snaps ...policy.StaffingSnapshot) *fakeProjectStore {
	s := &fakeProjectStore{snapshots: make(map[uint]policy.StaffingSnapshot)}
	for _, snap := range snaps {
		s.snapshots[snap.ProjectID] = snap
	}
	return s
}

func (s *fakeProjectStore) StaffingSnapshot(projectID uint) (policy.StaffingSnapshot, error) {
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return policy.StaffingSnapshot{}, err
	}
	snap, ok := s.snapshots[projectID]
	if !ok {
		return policy.StaffingSnapshot{}, repositories.ErrNotFound
	}
	return snap, nil
}

func (s *fakeProjectStore) ProjectIDsForUser(userID uint, role policy.Role) ([]uint, error) {
	var out []uint
	for id, snap := range s.snapshots {
		if policy.CanAccessProjectChat(snap, userID, role) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *fakeProjectStore) NamesByIDs(ids []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	for _, id := range ids {
		if snap, ok := s.snapshots[id]; ok {
			out[id] = snap.ProjectName
		}
	}
	return out, nil
}

// fakeUserStore serves users from a fixed map.
type fakeUserStore struct {
	users map[uint]models.User
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uint]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByID(id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (s *fakeUserStore) GetByIDs(ids []uint) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) ActiveIDsByRole(role policy.Role) ([]uint, error) {
	var out []uint
	for _, u := range s.users {
		if u.Active && u.Role == role {
			out = append(out, u.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *fakeUserStore) ActiveUsers() ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if u.Active {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// seqIDGen mints sequential IDs.
type seqIDGen struct {
	mu   sync.Mutex
	next int64
}

func (g *seqIDGen) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next, nil
}

// fakeEmitter records every emission.
type fakeEmitter struct {
	mu        sync.Mutex
	toUser    []emission
	toProject []emission
}

type emission struct {
	target  uint
	event   string
	payload any
}

func (e *fakeEmitter) EmitToUser(userID uint, event string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.toUser = append(e.toUser, emission{target: userID, event: event, payload: payload})
}

func (e *fakeEmitter) EmitToProject(projectID uint, event string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.toProject = append(e.toProject, emission{target: projectID, event: event, payload: payload})
}

func (e *fakeEmitter) userTargets() []uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]uint, 0, len(e.toUser))
	for _, em := range e.toUser {
		out = append(out, em.target)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func uintPtr(v uint) *uint { return &v }

func testUser(id uint, name string, role policy.Role) models.User {
	return models.User{
		ID:     id,
		Name:   name,
		Email:  fmt.Sprintf("%s@studiohub.dev", name),
		Role:   role,
		Active: true,
	}
}
