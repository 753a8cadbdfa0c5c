package domain

import "regexp"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidUsername letters, digits and underscore only
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// RegisterRequest new account payload
type RegisterRequest struct {
	Username   string `json:"username" binding:"required,min=3,max=20"`
	Name       string `json:"name" binding:"required,min=2,max=100"`
	Email      string `json:"email" binding:"required,email,max=255"`
	Password   string `json:"password" binding:"required,min=6,max=72"`
	InviteCode string `json:"inviteCode" binding:"max=50"`
}

// LoginRequest credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse user, profile and a fresh token
type AuthResponse struct {
	User    *User    `json:"user"`
	Profile *Profile `json:"profile"`
	Token   string   `json:"token"`
}

// ProfileView user plus profile
type ProfileView struct {
	User    *User    `json:"user"`
	Profile *Profile `json:"profile"`
}

// UpdateProfileRequest name and bio; nil fields are left untouched
type UpdateProfileRequest struct {
	Name *string `json:"name" binding:"omitempty,min=2,max=100"`
	Bio  *string `json:"bio" binding:"omitempty,max=500"`
}

// UpdateProfileResult only the parts that changed
type UpdateProfileResult struct {
	User    *User    `json:"user,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}

// RequestEmailChangeRequest starts an email change
type RequestEmailChangeRequest struct {
	NewEmail string `json:"newEmail" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required"`
}

// RequestPasswordChangeRequest starts a password change
type RequestPasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

// ConfirmCodeRequest verification code submitted by the user
type ConfirmCodeRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

// RegistrationStatus whether sign-up needs an invite
type RegistrationStatus struct {
	RequireInviteCode bool `json:"requireInviteCode"`
	RegistrationOpen  bool `json:"registrationOpen"`
}

// ToggleRegistrationRequest admin switch for invite-gated registration
type ToggleRegistrationRequest struct {
	Required *bool `json:"required" binding:"required"`
}

// InviteCodeLength characters in a generated invite code
const InviteCodeLength = 6

// InviteValidation public result of checking a code
type InviteValidation struct {
	Valid    bool   `json:"valid"`
	Code     string `json:"code"`
	IsActive bool   `json:"is_active"`
}

// MyInvites invites issued to the current user
type MyInvites struct {
	InviteCodes []*InviteCode `json:"inviteCodes"`
	ActiveCount int64         `json:"activeCount"`
}
