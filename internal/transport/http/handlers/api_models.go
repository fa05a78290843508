package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
)

// ErrorResponse is the uniform error body returned by every handler.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse builds an ErrorResponse carrying the request correlation ID
// when the middleware has set one.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	resp := ErrorResponse{Error: errorMsg}
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			resp.RequestID = id
		}
	}
	return resp
}

// MessageResponse is a simple acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse reports readiness with per-dependency check results.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// UserSummary is the public projection of a user. Credential material never
// appears here.
type UserSummary struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	Locked      bool       `json:"locked"`
	Admin       bool       `json:"admin"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewUserSummary projects a domain user into its API representation.
func NewUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Status:      string(user.Status()),
		Locked:      user.Locked,
		Admin:       user.Admin,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// LoginRequest carries the credentials for an authentication attempt.
// Surface selects which entry point the attempt targets: "cp" for the
// control panel, anything else (or empty) for the public site.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Surface    string `json:"surface"`
}

// LoginResponse returns the authenticated user and a session credential.
type LoginResponse struct {
	User    UserSummary `json:"user"`
	AuthKey string      `json:"auth_key"`
}

// RegisterRequest carries the fields for creating a new pending account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse returns the created user together with the one-time
// verification code. The caller is responsible for delivering the code to
// the address on file; this service never sends mail itself.
type RegisterResponse struct {
	User             UserSummary `json:"user"`
	VerificationCode string      `json:"verification_code"`
}

// VerifyEmailRequest redeems an emailed verification code.
type VerifyEmailRequest struct {
	Code string `json:"code" binding:"required"`
}

// VerificationCodeResponse returns a freshly issued verification code for
// out-of-band delivery.
type VerificationCodeResponse struct {
	VerificationCode string `json:"verification_code"`
}

// SetPasswordRequest carries a replacement password for the current user.
type SetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries the mutable profile fields.
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// DeleteUserRequest optionally names a user who inherits the deleted user's
// content. Without an inheritor the content is removed along with the user.
type DeleteUserRequest struct {
	InheritorID *string `json:"inheritor_id"`
}
