package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"stockroom/internal/caching"
	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/services"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// AuthHandlers handles login, registration, and the current-user endpoint.
type AuthHandlers struct {
	authSvc  services.AuthService
	cacheSvc caching.CacheService
}

func NewAuthHandlers(authSvc services.AuthService, cacheSvc caching.CacheService) *AuthHandlers {
	return &AuthHandlers{
		authSvc:  authSvc,
		cacheSvc: cacheSvc,
	}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and the public user view.
type LoginResponse struct {
	Token string          `json:"token"`
	User  models.UserInfo `json:"user"`
}

func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, common.Validationf("invalid request body"))
	}
	if req.Username == "" || req.Password == "" {
		return respondError(c, common.Validationf("username and password are required"))
	}

	limited, err := h.cacheSvc.IsRateLimited(ctx, "login:"+req.Username, loginRateLimit, loginRateWindow)
	if err != nil {
		// Rate limiting is best-effort; a cache outage never blocks login.
		log.Printf("login rate-limit check failed: %v", err)
	} else if limited {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many login attempts, try again later"})
	}

	token, user, err := h.authSvc.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, LoginResponse{Token: token, User: user.Public()})
}

// RegisterRequest is the registration payload. Role defaults to operator.
type RegisterRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, common.Validationf("invalid request body"))
	}

	user, err := h.authSvc.Register(c.Request().Context(), req.Username, req.Password, req.Role)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"user": user.Public()})
}

// Me returns the identity carried by the caller's token.
func (h *AuthHandlers) Me(c echo.Context) error {
	identity, ok := common.GetIdentityFromContext(c.Request().Context())
	if !ok {
		return respondError(c, common.ErrUnauthorized)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":       identity.UserID,
		"username": identity.Username,
		"role":     identity.Role,
	})
}
