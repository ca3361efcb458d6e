package session

import "github.com/feastflow/storefront/internal/domain/validation"

// LoginForm is the sign-in input.
type LoginForm struct {
	Email    string `json:"email" validate:"notblank,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

// Normalize trims the free-text fields. The password is left untouched.
func (f *LoginForm) Normalize() {
	f.Email = validation.Clean(f.Email)
}

// Validate returns a *validation.ValidationError when the form is unusable.
func (f LoginForm) Validate() error {
	return validation.Struct(f)
}

// RegisterForm is the sign-up input.
type RegisterForm struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"notblank,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

// Normalize trims the free-text fields.
func (f *RegisterForm) Normalize() {
	f.Name = validation.Clean(f.Name)
	f.Email = validation.Clean(f.Email)
}

// Validate returns a *validation.ValidationError when the form is unusable.
func (f RegisterForm) Validate() error {
	return validation.Struct(f)
}
