package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

type taggedItem struct {
	id    int
	roles RoleSet
}

func (t taggedItem) VisibleRoles() RoleSet { return t.roles }

func TestFilterVisible(t *testing.T) {
	items := []taggedItem{
		{id: 1, roles: NewRoleSet(RoleAdmin, RoleManager)},
		{id: 2, roles: NewRoleSet(AllRoles...)},
		{id: 3, roles: NewRoleSet(RoleDeveloper)},
	}

	visible := FilterVisible(items, RoleDeveloper)
	ids := make([]int, 0, len(visible))
	for _, it := range visible {
		ids = append(ids, it.id)
	}
	assert.Equal(t, []int{2, 3}, ids)

	visible = FilterVisible(items, RoleManager)
	assert.Len(t, visible, 2)

	assert.Empty(t, FilterVisible[taggedItem](nil, RoleAdmin))
}

func TestFilterVisible_Properties(t *testing.T) {
	roleGen := rapid.SampledFrom(AllRoles)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 50).Draw(t, "n")
		items := make([]taggedItem, 0, n)
		for i := range n {
			members := rapid.SliceOfN(roleGen, 0, 5).Draw(t, "members")
			items = append(items, taggedItem{id: i, roles: NewRoleSet(members...)})
		}
		role := roleGen.Draw(t, "role")

		visible := FilterVisible(items, role)

		// Every surviving item admits the role, and order is preserved.
		lastID := -1
		for _, it := range visible {
			if !it.roles.Contains(role) {
				t.Fatalf("item %d leaked to role %s", it.id, role)
			}
			if it.id <= lastID {
				t.Fatalf("order not preserved: %d after %d", it.id, lastID)
			}
			lastID = it.id
		}

		// No admitting item was dropped.
		want := 0
		for _, it := range items {
			if it.roles.Contains(role) {
				want++
			}
		}
		if len(visible) != want {
			t.Fatalf("expected %d visible items, got %d", want, len(visible))
		}

		// Filtering is idempotent.
		if len(FilterVisible(visible, role)) != len(visible) {
			t.Fatalf("filter is not idempotent")
		}
	})
}
