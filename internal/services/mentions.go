package services

import (
	"sort"
	"strings"

	"github.com/studiohub/studiohub/internal/models"
	"github.com/studiohub/studiohub/internal/policy"
)

// extractMentions resolves @Name references in the body against the
// project's current team, case-insensitively. When two team members match
// the same text, staffing order wins (manager, team lead, designer, then
// developers by ID); the source behavior does not disambiguate further and
// neither do we.
func (s *MessageService) extractMentions(body string, snap policy.StaffingSnapshot) ([]models.Mention, error) {
	if !strings.Contains(body, "@") {
		return nil, nil
	}

	memberIDs := teamMemberIDs(snap)
	if len(memberIDs) == 0 {
		return nil, nil
	}
	members, err := s.users.GetByIDs(memberIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.User, len(members))
	for i := range members {
		byID[members[i].ID] = &members[i]
	}

	lower := strings.ToLower(body)
	type hit struct {
		mention models.Mention
		index   int
	}
	var hits []hit
	seen := make(map[uint]bool)

	for _, id := range memberIDs {
		member, ok := byID[id]
		if !ok || member.Name == "" || seen[member.ID] {
			continue
		}
		idx := strings.Index(lower, "@"+strings.ToLower(member.Name))
		if idx < 0 {
			continue
		}
		seen[member.ID] = true
		hits = append(hits, hit{
			mention: models.Mention{UserID: member.ID, Name: member.Name, Role: member.Role},
			index:   idx,
		})
	}

	// Mentions are ordered by their appearance in the body.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].index < hits[j].index })

	mentions := make([]models.Mention, 0, len(hits))
	for _, h := range hits {
		mentions = append(mentions, h.mention)
	}
	return mentions, nil
}

// teamMemberIDs flattens the staffing snapshot into the mention resolution
// order: named slots first, then developers ascending.
func teamMemberIDs(snap policy.StaffingSnapshot) []uint {
	var ids []uint
	seen := make(map[uint]bool)
	push := func(id uint) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if snap.ManagerID != nil {
		push(*snap.ManagerID)
	}
	if snap.TeamLeadID != nil {
		push(*snap.TeamLeadID)
	}
	if snap.DesignerID != nil {
		push(*snap.DesignerID)
	}
	for _, id := range snap.DeveloperIDs {
		push(id)
	}
	return ids
}
