package services

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiohub/studiohub/internal/models"
	"github.com/studiohub/studiohub/internal/policy"
	"github.com/studiohub/studiohub/internal/repositories"
)

func newTestNotificationService(projects *fakeProjectStore, users *fakeUserStore, emitter *fakeEmitter) *NotificationService {
	return NewNotificationService(projects, users, emitter, testLogger())
}

func TestRecipients_VisibilityDrivesSlots(t *testing.T) {
	svc := newTestNotificationService(newFakeProjectStore(), atlasUsers(), &fakeEmitter{})
	snap := atlasSnapshot()

	// Team lead sends to managers and developers only: the manager slot and
	// every task-assigned developer get it, nobody else.
	visibility := policy.NewRoleSet(policy.RoleManager, policy.RoleDeveloper)
	recipients, err := svc.Recipients(snap, visibility, 20)
	require.NoError(t, err)

	sort.Slice(recipients, func(i, j int) bool { return recipients[i] < recipients[j] })
	assert.Equal(t, []uint{10, 40, 41}, recipients)
}

func TestRecipients_AdminsQueriedFresh(t *testing.T) {
	users := newFakeUserStore(
		testUser(1, "Alex", policy.RoleAdmin),
		testUser(2, "Jamie", policy.RoleAdmin),
		testUser(10, "Morgan", policy.RoleManager),
	)
	svc := newTestNotificationService(newFakeProjectStore(), users, &fakeEmitter{})

	visibility := policy.NewRoleSet(policy.RoleAdmin, policy.RoleManager)
	recipients, err := svc.Recipients(atlasSnapshot(), visibility, 10)
	require.NoError(t, err)

	sort.Slice(recipients, func(i, j int) bool { return recipients[i] < recipients[j] })
	// Both admins, sender (the manager) excluded.
	assert.Equal(t, []uint{1, 2}, recipients)
}

func TestRecipients_InactiveAdminSkipped(t *testing.T) {
	inactive := testUser(2, "Jamie", policy.RoleAdmin)
	inactive.Active = false
	users := newFakeUserStore(testUser(1, "Alex", policy.RoleAdmin), inactive)
	svc := newTestNotificationService(newFakeProjectStore(), users, &fakeEmitter{})

	recipients, err := svc.Recipients(atlasSnapshot(), policy.NewRoleSet(policy.RoleAdmin), 99)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, recipients)
}

func TestRecipients_SenderAlwaysExcluded(t *testing.T) {
	svc := newTestNotificationService(newFakeProjectStore(), atlasUsers(), &fakeEmitter{})
	snap := atlasSnapshot()

	// The manager sends a message visible to managers; the manager slot
	// matches the sender and must be dropped.
	recipients, err := svc.Recipients(snap, policy.NewRoleSet(policy.RoleManager), 10)
	require.NoError(t, err)
	assert.Empty(t, recipients)
}

func TestRecipients_UnstaffedSlotSkipped(t *testing.T) {
	// Project staffed with a manager and one developer, no designer. The
	// team lead posts with the full default visibility: the manager and the
	// developer get notified, the empty designer slot adds nobody, and the
	// sender drops out.
	users := newFakeUserStore(
		testUser(10, "Morgan", policy.RoleManager),
		testUser(20, "Taylor", policy.RoleTeamLead),
		testUser(40, "Riley", policy.RoleDeveloper),
	)
	svc := newTestNotificationService(newFakeProjectStore(), users, &fakeEmitter{})
	snap := policy.StaffingSnapshot{
		ProjectID:    1,
		ProjectName:  "Atlas",
		ManagerID:    uintPtr(10),
		TeamLeadID:   uintPtr(20),
		DeveloperIDs: []uint{40},
	}

	recipients, err := svc.Recipients(snap, policy.NewRoleSet(policy.AllRoles...), 20)
	require.NoError(t, err)

	sort.Slice(recipients, func(i, j int) bool { return recipients[i] < recipients[j] })
	assert.Equal(t, []uint{10, 40}, recipients)
}

func TestRecipients_UnstaffedSlotsProduceNobody(t *testing.T) {
	svc := newTestNotificationService(newFakeProjectStore(), newFakeUserStore(), &fakeEmitter{})
	snap := policy.StaffingSnapshot{ProjectID: 2, ProjectName: "Bare"}

	recipients, err := svc.Recipients(snap, policy.NewRoleSet(policy.AllRoles...), 1)
	require.NoError(t, err)
	assert.Empty(t, recipients)
}

func TestDispatch_EmitsToEachRecipient(t *testing.T) {
	emitter := &fakeEmitter{}
	svc := newTestNotificationService(newFakeProjectStore(atlasSnapshot()), atlasUsers(), emitter)

	message := MessageDTO{
		ID:             77,
		ProjectID:      1,
		SenderID:       20,
		Body:           "deploy went out",
		VisibleToRoles: policy.NewRoleSet(policy.AllRoles...),
		Priority:       models.PriorityNormal,
	}

	svc.Dispatch(message)

	// Everyone staffed except the sender: admin, manager, designer, devs.
	assert.Equal(t, []uint{1, 10, 30, 40, 41}, emitter.userTargets())

	require.NotEmpty(t, emitter.toUser)
	first := emitter.toUser[0]
	assert.Equal(t, EventChatNotification, first.event)
	payload, ok := first.payload.(NotificationPayload)
	require.True(t, ok)
	assert.Equal(t, int64(77), payload.Message.ID)
	assert.Equal(t, "Atlas", payload.ProjectName)
}

func TestDispatch_SwallowsLookupFailure(t *testing.T) {
	emitter := &fakeEmitter{}
	projects := newFakeProjectStore()
	projects.failNext = repositories.ErrNotFound
	svc := newTestNotificationService(projects, atlasUsers(), emitter)

	svc.Dispatch(MessageDTO{ID: 1, ProjectID: 9, SenderID: 2})

	assert.Empty(t, emitter.toUser, "fanout failures never emit")
}
