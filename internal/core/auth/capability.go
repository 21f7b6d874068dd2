// Package auth centralizes the role → capability table. Every privileged
// ledger operation asks Can(role, capability) instead of comparing roles.
package auth

import v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"

type Capability int

const (
	// CreateEvent allows creating events owned by the caller.
	CreateEvent Capability = iota
	// ManageAnyEvent allows updating, cancelling, invalidating tickets of and
	// reading stats for events the caller does not own.
	ManageAnyEvent
	// ManageRoles allows assigning and revoking the Organizer role.
	ManageRoles
)

var capabilities = map[v1.Role]map[Capability]bool{
	v1.RoleUser: {},
	v1.RoleOrganizer: {
		CreateEvent: true,
	},
	v1.RoleAdmin: {
		CreateEvent:    true,
		ManageAnyEvent: true,
		ManageRoles:    true,
	},
}

// Can reports whether role grants c. Unknown roles grant nothing.
func Can(role v1.Role, c Capability) bool {
	return capabilities[role][c]
}

// CanManageEvent is the owner-or-capability check shared by event and ticket
// administration.
func CanManageEvent(caller string, role v1.Role, eventOwner string) bool {
	return caller == eventOwner || Can(role, ManageAnyEvent)
}

func (c Capability) String() string {
	switch c {
	case CreateEvent:
		return "CreateEvent"
	case ManageAnyEvent:
		return "ManageAnyEvent"
	case ManageRoles:
		return "ManageRoles"
	}
	return "Unknown"
}
