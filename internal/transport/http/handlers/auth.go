package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/infra/config"
	"github.com/arklim/content-platform-accounts/internal/infra/logger"
	"github.com/arklim/content-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/content-platform-accounts/internal/usecase"
)

var loginOutcomes = newLoginOutcomeCounter()

func newLoginOutcomeCounter() *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts partitioned by outcome.",
	}, []string{"result"})

	if err := prometheus.Register(vec); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return vec
}

// AuthHandler serves login and logout.
type AuthHandler struct {
	cfg      *config.AppConfig
	auth     *usecase.AuthService
	sessions *usecase.SessionService
	log      *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg *config.AppConfig, auth *usecase.AuthService, sessions *usecase.SessionService, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{cfg: cfg, auth: auth, sessions: sessions, log: log}
}

// RegisterRoutes mounts the public and protected auth endpoints.
func (h *AuthHandler) RegisterRoutes(public *gin.RouterGroup, protected *gin.RouterGroup) {
	public.POST("/auth/login", h.Login)
	protected.POST("/auth/logout", h.Logout)
}

// Login authenticates credentials and issues a session credential on success.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "identifier and password are required"))
		return
	}

	reqCtx := domain.RequestContext{
		Kind:       requestKindFromSurface(req.Surface),
		SystemLive: h.cfg.App.Live,
	}

	result, err := h.auth.Authenticate(c.Request.Context(), req.Identifier, req.Password, reqCtx)
	if err != nil {
		loginOutcomes.WithLabelValues("error").Inc()
		h.log.Error("authentication attempt failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "internal server error"))
		return
	}

	if !result.OK() {
		loginOutcomes.WithLabelValues(string(result.Err)).Inc()
		status, message := loginFailureResponse(result.Err)
		resp := NewErrorResponse(c, message)
		resp.Code = string(result.Err)
		c.JSON(status, resp)
		return
	}

	authKey, err := h.sessions.IssueAuthKey(c.Request.Context(), result.User.ID, c.Request.UserAgent())
	if err != nil {
		h.log.Error("failed to issue session credential",
			zap.String("user_id", result.User.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "internal server error"))
		return
	}

	loginOutcomes.WithLabelValues("success").Inc()
	h.log.Info("user logged in",
		zap.String("user_id", result.User.ID),
		zap.String("email", logger.MaskEmail(result.User.Email)),
	)

	c.JSON(http.StatusOK, LoginResponse{
		User:    NewUserSummary(result.User),
		AuthKey: authKey,
	})
}

// Logout revokes the session credential used on this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}
	credential, _ := middleware.CurrentCredential(c)

	if err := h.sessions.Logout(c.Request.Context(), user.ID, credential); err != nil {
		RespondWithMappedError(c, h.log, err,
			ErrorCase{Err: usecase.ErrInvalidAuthKey, Status: http.StatusUnauthorized, Message: "invalid session credential"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func requestKindFromSurface(surface string) domain.RequestKind {
	if surface == "cp" {
		return domain.RequestControlPanel
	}
	return domain.RequestSite
}

// loginFailureResponse maps an authentication failure code to an HTTP status
// and a caller-facing message.
func loginFailureResponse(code domain.AuthError) (int, string) {
	switch code {
	case domain.AuthErrInvalidCredentials:
		return http.StatusUnauthorized, "invalid username or password"
	case domain.AuthErrPendingVerification:
		return http.StatusForbidden, "account is pending email verification"
	case domain.AuthErrAccountSuspended:
		return http.StatusForbidden, "account is suspended"
	case domain.AuthErrAccountLocked:
		return http.StatusLocked, "account is locked"
	case domain.AuthErrAccountCooldown:
		return http.StatusLocked, "account is temporarily locked, try again later"
	case domain.AuthErrPasswordResetRequired:
		return http.StatusForbidden, "a password reset is required before signing in"
	case domain.AuthErrNoCpAccess:
		return http.StatusForbidden, "account may not access the control panel"
	case domain.AuthErrNoCpOfflineAccess:
		return http.StatusForbidden, "account may not access the control panel while the system is offline"
	case domain.AuthErrNoSiteOfflineAccess:
		return http.StatusForbidden, "account may not access the site while the system is offline"
	default:
		return http.StatusUnauthorized, "authentication failed"
	}
}
