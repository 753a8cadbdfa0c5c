package domain

// Role user role stored on the profile
type Role string

const (
	RoleUsuario   Role = "usuario"
	RoleVIP       Role = "vip"
	RoleUploader  Role = "uploader"
	RoleSuporte   Role = "suporte"
	RoleModerador Role = "moderador"
	RoleAdmin     Role = "admin"
	RoleMaster    Role = "master"
)

// roleLevels usuario and vip share a level on purpose
var roleLevels = map[Role]int{
	RoleUsuario:   1,
	RoleVIP:       1,
	RoleUploader:  2,
	RoleSuporte:   3,
	RoleModerador: 4,
	RoleAdmin:     5,
	RoleMaster:    6,
}

// banCeilings highest target level each role may ban; roles absent cannot ban
var banCeilings = map[Role]int{
	RoleModerador: 3,
	RoleAdmin:     4,
	RoleMaster:    6,
}

const moderatorLevel = 4

// AllRoles lists roles in ascending hierarchy
func AllRoles() []Role {
	return []Role{RoleUsuario, RoleVIP, RoleUploader, RoleSuporte, RoleModerador, RoleAdmin, RoleMaster}
}

// ParseRole validates a raw role name
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := roleLevels[r]
	return r, ok
}

// HierarchyLevel returns the role level; unknown roles are 0
func HierarchyLevel(r Role) int {
	return roleLevels[r]
}

// CanManage reports whether actor strictly outranks target
func CanManage(actor, target Role) bool {
	return HierarchyLevel(actor) > HierarchyLevel(target)
}

// CanBan applies the per-tier ban ceilings
func CanBan(actor, target Role) bool {
	if HierarchyLevel(actor) < moderatorLevel {
		return false
	}
	ceiling, ok := banCeilings[actor]
	if !ok {
		return false
	}
	return HierarchyLevel(target) <= ceiling
}

// HasMinimumRole passes when role is at least as high as any allowed role
func HasMinimumRole(r Role, allowed ...Role) bool {
	level := HierarchyLevel(r)
	if level == 0 {
		return false
	}
	for _, a := range allowed {
		if level >= HierarchyLevel(a) {
			return true
		}
	}
	return false
}

// IsModerator moderador, admin or master
func IsModerator(r Role) bool {
	return HierarchyLevel(r) >= moderatorLevel
}
