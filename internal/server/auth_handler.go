// Package server provides the HTTP REST API for the memo generator.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/khartman/memoflow/internal/config"
	"github.com/khartman/memoflow/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
// The server protects a single operator account: one password, hashed at
// startup, exchanged for a session JWT via Login.
type AuthHandler struct {
	passwordConfig *config.PasswordConfig
	passwordHash   string
	jwtService     *JWTService
	validator      *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(passwordConfig *config.PasswordConfig, passwordHash string, jwtService *JWTService) *AuthHandler {
	return &AuthHandler{
		passwordConfig: passwordConfig,
		passwordHash:   passwordHash,
		jwtService:     jwtService,
		validator:      validator.New(),
	}
}

// Login handles login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		validationErrors := extractValidationErrors(err)
		http.Error(w, validationErrors, http.StatusBadRequest)
		return
	}

	if !h.passwordConfig.VerifyPassword(req.Password, h.passwordHash) {
		err := &ErrInvalidCredentials{}
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	token, err := h.jwtService.GenerateToken(uuid.New())
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	response := types.LoginResponse{
		Token: token,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Log error but response already sent
		return
	}
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			// Return first validation error for simplicity
			ve := validationErrors[0]
			return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
		}
	}
	return "validation error: invalid request"
}
