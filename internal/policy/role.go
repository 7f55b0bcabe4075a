package policy

import (
	"encoding/json"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Role is a staffing role tag. The tags double as the wire and storage
// representation, so they must stay stable.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleManager   Role = "MANAGER"
	RoleTeamLead  Role = "TEAM_LEAD"
	RoleDeveloper Role = "DEVELOPER"
	RoleDesigner  Role = "DESIGNER"
)

// AllRoles lists every known role in canonical order.
var AllRoles = []Role{RoleAdmin, RoleManager, RoleTeamLead, RoleDeveloper, RoleDesigner}

var roleBits = map[Role]uint{
	RoleAdmin:     0,
	RoleManager:   1,
	RoleTeamLead:  2,
	RoleDeveloper: 3,
	RoleDesigner:  4,
}

// ParseRole validates a raw role tag.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleBits[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether the role is one of the known tags.
func (r Role) Valid() bool {
	_, ok := roleBits[r]
	return ok
}

// RoleSet is a set of role tags backed by a bitset. The zero value is the
// empty set.
type RoleSet struct {
	bits bitset.BitSet
}

// NewRoleSet builds a set from the given roles. Unknown tags are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s.Add(r)
	}
	return s
}

// RoleSetFrom builds a set from raw tags, e.g. a JSON column read back from
// the store. Unknown tags are ignored.
func RoleSetFrom(tags []Role) RoleSet {
	return NewRoleSet(tags...)
}

func (s *RoleSet) Add(r Role) {
	if bit, ok := roleBits[r]; ok {
		s.bits.Set(bit)
	}
}

func (s RoleSet) Contains(r Role) bool {
	bit, ok := roleBits[r]
	return ok && s.bits.Test(bit)
}

func (s RoleSet) IsEmpty() bool {
	return s.bits.None()
}

func (s RoleSet) Len() int {
	return int(s.bits.Count())
}

// Roles returns the member roles in canonical order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, s.Len())
	for _, r := range AllRoles {
		if s.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}

// MarshalJSON encodes the set as a string array, matching the persisted
// column format.
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Roles())
}

func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var tags []Role
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*s = RoleSetFrom(tags)
	return nil
}

func (s RoleSet) String() string {
	b, _ := json.Marshal(s)
	return string(b)
}
