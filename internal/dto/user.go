package dto

import "strings"

type SignupRequest struct {
	Name            string `json:"name" binding:"required,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Photo           string `json:"photo" binding:"omitempty,max=255"`
	Password        string `json:"password" binding:"required,min=8,max=100"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// LoginRequest carries no rules; missing credentials get a dedicated message.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=8,max=100"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" binding:"required"`
	Password        string `json:"password" binding:"required,min=8,max=100"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// UpdateMeRequest accepts password fields only to reject them.
type UpdateMeRequest struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email           *string `json:"email" binding:"omitempty,email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

// HasPassword reports whether the body tries to change the password.
func (r *UpdateMeRequest) HasPassword() bool {
	return r.Password != nil || r.PasswordConfirm != nil
}

// Changes keeps only name and email.
func (r *UpdateMeRequest) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if r.Name != nil {
		changes["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		changes["email"] = NormalizeEmail(*r.Email)
	}
	return changes
}

// UpdateUserRequest is the admin edit of any account.
type UpdateUserRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email *string `json:"email" binding:"omitempty,email"`
	Photo *string `json:"photo" binding:"omitempty,max=255"`
	Role  *string `json:"role" binding:"omitempty,oneof=user guide lead-guide admin"`
}

func (r *UpdateUserRequest) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if r.Name != nil {
		changes["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		changes["email"] = NormalizeEmail(*r.Email)
	}
	if r.Photo != nil {
		changes["photo"] = *r.Photo
	}
	if r.Role != nil {
		changes["role"] = *r.Role
	}
	return changes
}

// CreateUserRequest exists so the admin create route can share the generic
// handler; the route always refuses.
type CreateUserRequest struct{}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
