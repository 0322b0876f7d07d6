package handler

import (
	"net/http"

	"ecommerce-backend/internal/adapter/http/dto"
	"ecommerce-backend/internal/adapter/http/middleware"
	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	userSvc          ports.UserService
	allowAdminSignup bool
}

// NewAuthHandler creates a new AuthHandler. Unless allowAdminSignup is set,
// registration only creates customers.
func NewAuthHandler(userSvc ports.UserService, allowAdminSignup bool) *AuthHandler {
	return &AuthHandler{userSvc: userSvc, allowAdminSignup: allowAdminSignup}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if domain.UserRole(req.Role) == domain.UserRoleAdmin && !h.allowAdminSignup {
		response.Error(c, apperror.UnauthorizedAccess("admin accounts cannot be self-registered"))
		return
	}

	user, err := h.userSvc.Register(c.Request.Context(), ports.RegisterRequest{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        domain.UserRole(req.Role),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.CtxUserID, user.ID)

	token, expiry, err := h.userSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.RegisterResponse{
		User:   user,
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	token, expiry, err := h.userSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.LoginResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// HealthCheck handles GET /health, pinging every dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
