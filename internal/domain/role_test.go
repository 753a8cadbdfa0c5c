package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHierarchyLevel(t *testing.T) {
	assert.Equal(t, 6, HierarchyLevel(RoleMaster))
	assert.Equal(t, 5, HierarchyLevel(RoleAdmin))
	assert.Equal(t, 4, HierarchyLevel(RoleModerador))
	assert.Equal(t, 3, HierarchyLevel(RoleSuporte))
	assert.Equal(t, 2, HierarchyLevel(RoleUploader))
	assert.Equal(t, 1, HierarchyLevel(RoleUsuario))
	assert.Equal(t, 1, HierarchyLevel(RoleVIP))
	assert.Equal(t, 0, HierarchyLevel(Role("owner")))
}

func TestCanManage_MatchesStrictLevelComparison(t *testing.T) {
	for _, a := range AllRoles() {
		for _, b := range AllRoles() {
			assert.Equal(t, HierarchyLevel(a) > HierarchyLevel(b), CanManage(a, b), "%s vs %s", a, b)
		}
	}
	assert.False(t, CanManage(RoleVIP, RoleUsuario))
	assert.False(t, CanManage(RoleUsuario, RoleVIP))
	assert.False(t, CanManage(RoleAdmin, RoleAdmin))
}

func TestCanBan_Tiers(t *testing.T) {
	assert.True(t, CanBan(RoleModerador, RoleSuporte))
	assert.False(t, CanBan(RoleModerador, RoleModerador))
	assert.False(t, CanBan(RoleAdmin, RoleAdmin))
	assert.True(t, CanBan(RoleAdmin, RoleModerador))
	assert.True(t, CanBan(RoleMaster, RoleAdmin))
	assert.True(t, CanBan(RoleMaster, RoleMaster))
	assert.False(t, CanBan(RoleSuporte, RoleUsuario))
	assert.False(t, CanBan(Role("ghost"), RoleUsuario))
	assert.True(t, CanBan(RoleModerador, Role("ghost")))
}

func TestHasMinimumRole(t *testing.T) {
	assert.True(t, HasMinimumRole(RoleAdmin, RoleModerador))
	assert.True(t, HasMinimumRole(RoleModerador, RoleModerador, RoleAdmin))
	assert.False(t, HasMinimumRole(RoleSuporte, RoleModerador))
	assert.True(t, HasMinimumRole(RoleVIP, RoleUsuario))
	assert.False(t, HasMinimumRole(Role(""), RoleUsuario))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("uploader")
	assert.True(t, ok)
	assert.Equal(t, RoleUploader, r)

	_, ok = ParseRole("Uploader")
	assert.False(t, ok)
}
