package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/infra/logger"
	"github.com/arklim/content-platform-accounts/internal/infra/security"
	"github.com/arklim/content-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/content-platform-accounts/internal/usecase"
)

// UserHandler serves account lifecycle endpoints.
type UserHandler struct {
	users    *usecase.UserService
	deletion *usecase.DeletionService
	log      *zap.Logger
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *usecase.UserService, deletion *usecase.DeletionService, log *zap.Logger) *UserHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserHandler{users: users, deletion: deletion, log: log}
}

// RegisterRoutes mounts the public and protected user endpoints.
func (h *UserHandler) RegisterRoutes(public *gin.RouterGroup, protected *gin.RouterGroup) {
	public.POST("/users", h.Register)
	public.POST("/users/:id/verify-email", h.VerifyEmail)

	protected.GET("/users/me", h.Me)
	protected.PUT("/users/me", h.UpdateProfile)
	protected.PUT("/users/me/password", h.SetPassword)

	protected.POST("/users/:id/verification-code", h.ResendVerification)
	protected.POST("/users/:id/suspend", h.Suspend)
	protected.POST("/users/:id/unsuspend", h.Unsuspend)
	protected.POST("/users/:id/unlock", h.Unlock)
	protected.DELETE("/users/:id", h.Delete)
}

// Register creates a new pending account and returns the verification code
// for out-of-band delivery.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username, email, and password are required"))
		return
	}

	user, code, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if respondPasswordValidation(c, err) {
			return
		}
		RespondWithMappedError(c, h.log, err)
		return
	}

	h.log.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	c.JSON(http.StatusCreated, RegisterResponse{
		User:             NewUserSummary(user),
		VerificationCode: code,
	})
}

// VerifyEmail redeems a verification code and activates the account.
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "code is required"))
		return
	}

	err := h.users.VerifyEmail(c.Request.Context(), c.Param("id"), req.Code)
	if err != nil {
		RespondWithMappedError(c, h.log, err,
			ErrorCase{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			ErrorCase{Err: usecase.ErrInvalidVerificationCode, Status: http.StatusBadRequest, Message: "invalid verification code"},
			ErrorCase{Err: usecase.ErrVerificationCodeExpired, Status: http.StatusGone, Message: "verification code has expired"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "email verified"})
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}
	c.JSON(http.StatusOK, NewUserSummary(user))
}

// UpdateProfile changes the authenticated user's mutable profile fields.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username and email are required"))
		return
	}

	updated := *user
	updated.Username = req.Username
	updated.Email = req.Email

	if err := h.users.SaveProfile(c.Request.Context(), updated); err != nil {
		RespondWithMappedError(c, h.log, err,
			ErrorCase{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			ErrorCase{Err: usecase.ErrStateFieldMutation, Status: http.StatusConflict, Message: "account state cannot be changed through profile updates"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "profile updated"})
}

// SetPassword replaces the authenticated user's password and revokes every
// other session.
func (h *UserHandler) SetPassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "password is required"))
		return
	}

	// The current session survives the revocation sweep.
	currentToken := ""
	if credential, ok := middleware.CurrentCredential(c); ok {
		if key, decoded := domain.DecodeAuthKey(credential); decoded {
			currentToken = key.Token
		}
	}

	if err := h.users.SetPassword(c.Request.Context(), user.ID, currentToken, req.Password); err != nil {
		if respondPasswordValidation(c, err) {
			return
		}
		RespondWithMappedError(c, h.log, err,
			ErrorCase{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

// ResendVerification issues a fresh verification code for a pending account.
func (h *UserHandler) ResendVerification(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	code, err := h.users.IssueVerificationCode(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, h.log, err,
			ErrorCase{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		)
		return
	}

	c.JSON(http.StatusOK, VerificationCodeResponse{VerificationCode: code})
}

// Suspend suspends a user.
func (h *UserHandler) Suspend(c *gin.Context) {
	actor, ok := h.requireAdmin(c)
	if !ok {
		return
	}

	if err := h.users.Suspend(c.Request.Context(), c.Param("id"), actor.ID); err != nil {
		RespondWithMappedError(c, h.log, err,
			ErrorCase{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user suspended"})
}

// Unsuspend lifts a suspension.
func (h *UserHandler) Unsuspend(c *gin.Context) {
	actor, ok := h.requireAdmin(c)
	if !ok {
		return
	}

	if err := h.users.Unsuspend(c.Request.Context(), c.Param("id"), actor.ID); err != nil {
		RespondWithMappedError(c, h.log, err,
			ErrorCase{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user unsuspended"})
}

// Unlock lifts a lockout ahead of the cooldown.
func (h *UserHandler) Unlock(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	if err := h.users.Unlock(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, h.log, err,
			ErrorCase{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user unlocked"})
}

// Delete removes a user, either handing their content to an inheritor or
// deleting it along with them.
func (h *UserHandler) Delete(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	var req DeleteUserRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "malformed request body"))
			return
		}
	}

	if err := h.deletion.DeleteUser(c.Request.Context(), c.Param("id"), req.InheritorID); err != nil {
		RespondWithMappedError(c, h.log, err,
			ErrorCase{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			ErrorCase{Err: usecase.ErrInheritorNotFound, Status: http.StatusBadRequest, Message: "inheritor does not exist or is archived"},
			ErrorCase{Err: usecase.ErrSelfInheritor, Status: http.StatusBadRequest, Message: "a user cannot inherit their own content"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}

// requireAdmin ensures the authenticated user holds admin rights and writes
// the failure response when they do not.
func (h *UserHandler) requireAdmin(c *gin.Context) (*domain.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return nil, false
	}
	if !user.Admin {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "admin privileges required"))
		return nil, false
	}
	return user, true
}

func respondPasswordValidation(c *gin.Context, err error) bool {
	var pwErr *security.PasswordValidationError
	if !errors.As(err, &pwErr) {
		return false
	}
	c.JSON(http.StatusUnprocessableEntity, NewErrorResponse(c, pwErr.Error()))
	return true
}
