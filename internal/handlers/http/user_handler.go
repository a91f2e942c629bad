package http

import (
	"net/http"

	"queuecast/internal/core/ports"
	"queuecast/internal/infrastructure/middleware"
	"queuecast/pkg/errors"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService  ports.UserService
	tokenMaxAge  int
	cookieSecure bool
}

var _ ports.UserHTTPHandler = (*UserHandler)(nil)

// NewUserHandler builds the account handler. tokenMaxAge is the cookie
// lifetime in seconds.
func NewUserHandler(userService ports.UserService, tokenMaxAge int, cookieSecure bool) *UserHandler {
	return &UserHandler{
		userService:  userService,
		tokenMaxAge:  tokenMaxAge,
		cookieSecure: cookieSecure,
	}
}

func (h *UserHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/user")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/verify-token", h.VerifyToken)
		api.POST("/logout", h.Logout)
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("invalid request format"))
		return
	}

	user, token, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("invalid request format"))
		return
	}

	user, token, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	h.setTokenCookie(c, token, h.tokenMaxAge)
	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"token": token,
	})
}

func (h *UserHandler) VerifyToken(c *gin.Context) {
	user, err := h.userService.VerifyToken(c.Request.Context(), middleware.ExtractToken(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.setTokenCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "User logged out successfully"})
}

func (h *UserHandler) setTokenCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, value, maxAge, "/", "", h.cookieSecure, true)
}
