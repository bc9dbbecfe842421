// Package permissions answers "can the current user do X in the current
// tenant". Denial is a rendering decision for the caller, never an exception;
// the backend remains the enforcement boundary.
package permissions

// OwnerPriorityLevel is the role priority at or above which every capability
// check short-circuits to true.
const OwnerPriorityLevel = 100

// EffectivePermissions is the fully-replaceable permissions document fetched
// per (user, tenant). There is no partial merge: each fetch replaces the
// whole document.
type EffectivePermissions struct {
	Permissions      []string `json:"permissions"`
	Roles            []string `json:"roles"`
	CanManageStaff   bool     `json:"can_manage_staff"`
	CanCreateRoles   bool     `json:"can_create_roles"`
	MaxPriorityLevel int      `json:"max_priority_level"`
}

// Empty returns the zero permission set: every check denies.
func Empty() *EffectivePermissions {
	return &EffectivePermissions{}
}

// IsOwner reports whether the user's maximum role priority grants
// owner-equivalent access.
func (p *EffectivePermissions) IsOwner() bool {
	return p.MaxPriorityLevel >= OwnerPriorityLevel
}

// Has reports whether the named capability is granted.
func (p *EffectivePermissions) Has(permission string) bool {
	if p.IsOwner() {
		return true
	}
	for _, granted := range p.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}
