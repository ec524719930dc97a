package types

import "github.com/go-playground/validator/v10"

// RunRequest represents a request to start a pipeline run for a subject company.
type RunRequest struct {
	Subject string `json:"subject" validate:"required,min=1"`
}

// LoginRequest represents the login request for the HTTP API.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the authentication token issued on successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// Validate validates the RunRequest using the validator.
func (r *RunRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
