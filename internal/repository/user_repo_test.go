package repository

import (
	"errors"
	"testing"

	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_CaseInsensitiveLookups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "Alice", domain.RoleUsuario)

	u, err := repo.FindByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Username)

	exists, err := repo.ExistsByEmail("ALICE@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsername("bob")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.FindByID("missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUserRepository_RegisterConsumesInvite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	owner := seedUser(t, db, "owner", domain.RoleUsuario)
	require.NoError(t, db.Create(&domain.InviteCode{Code: "ABC123", OwnerID: owner.ID, IsActive: true}).Error)

	reg := &Registration{
		User:       &domain.User{Username: "newbie", Name: "New", Email: "new@example.com", PasswordHash: "h"},
		Profile:    &domain.Profile{},
		InviteCode: "ABC123",
		NewInvite:  &domain.InviteCode{Code: "XYZ789", IsActive: true},
	}
	require.NoError(t, repo.Register(reg))

	var used domain.InviteCode
	require.NoError(t, db.Where("code = ?", "ABC123").First(&used).Error)
	assert.False(t, used.IsActive)
	require.NotNil(t, used.UsedByID)
	assert.Equal(t, reg.User.ID, *used.UsedByID)

	var issued domain.InviteCode
	require.NoError(t, db.Where("code = ?", "XYZ789").First(&issued).Error)
	assert.Equal(t, reg.User.ID, issued.OwnerID)

	p := reloadProfile(t, db, reg.User.ID)
	assert.Equal(t, domain.RoleUsuario, p.Role)
}

func TestUserRepository_RegisterRollsBackOnUsedInvite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	reg := &Registration{
		User:       &domain.User{Username: "ghost", Email: "ghost@example.com", PasswordHash: "h"},
		Profile:    &domain.Profile{},
		InviteCode: "NOPE00",
	}
	err := repo.Register(reg)
	assert.ErrorIs(t, err, ErrInviteUnavailable)

	exists, err := repo.ExistsByUsername("ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_DuplicateUsernameIsTranslated(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "dup", domain.RoleUsuario)

	err := repo.Register(&Registration{
		User:    &domain.User{Username: "dup", Email: "other@example.com"},
		Profile: &domain.Profile{},
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepository_UpdatesAndSummaries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	u := seedUser(t, db, "carol", domain.RoleUsuario)

	updated, err := repo.UpdateName(u.ID, "Carol C")
	require.NoError(t, err)
	assert.Equal(t, "Carol C", updated.Name)

	_, err = repo.UpdateEmail("missing", "x@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	summaries, err := repo.Summaries([]string{u.ID, u.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "carol", summaries[u.ID].Username)
}

func TestProfileRepository_Updates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	u := seedUser(t, db, "dave", domain.RoleUsuario)

	p, err := repo.UpdateBio(u.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Bio)

	p, err = repo.UpdateSignature(u.ID, "")
	require.NoError(t, err)
	assert.Empty(t, p.Signature)

	_, err = repo.UpdateAvatar("missing", "x")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
