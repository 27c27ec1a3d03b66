package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/edtech-labs/learning-task-api/internal/constants"
	"github.com/edtech-labs/learning-task-api/internal/dto"
	apierrors "github.com/edtech-labs/learning-task-api/internal/errors"
	"github.com/edtech-labs/learning-task-api/internal/middleware"
	"github.com/edtech-labs/learning-task-api/internal/models"
	"github.com/edtech-labs/learning-task-api/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Email     string  `json:"email" binding:"required"`
		Password  string  `json:"password" binding:"required"`
		Role      string  `json:"role" binding:"required"`
		TeacherID *uint64 `json:"teacherId"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	_, err := h.authService.Signup(services.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		Role:      models.Role(req.Role),
		TeacherID: req.TeacherID,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
	})
}

// Login authenticates a user and issues a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   result.Token,
		"user":    dto.ToUserDTO(*result.User, result.Teacher),
	})
}

// GetCurrentUser returns the authenticated user's profile.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	teacher, err := h.authService.ResolveTeacher(user)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    dto.ToUserDTO(*user, teacher),
	})
}

// ListTeachers returns all teachers, for the signup picker. Public.
func (h *AuthHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.authService.ListTeachers()
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToUserRefDTOs(teachers),
	})
}

// ListStudents returns the students assigned to the calling teacher.
func (h *AuthHandler) ListStudents(c *gin.Context) {
	user, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	students, err := h.authService.ListStudents(user)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToUserRefDTOs(students),
	})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		apierrors.BadRequest(c, "Valid email is required")
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, "Role must be student or teacher")
	case errors.Is(err, services.ErrTeacherRequired):
		apierrors.BadRequest(c, "teacherId is required for students")
	case errors.Is(err, services.ErrInvalidTeacher):
		apierrors.BadRequest(c, "Invalid teacherId for student")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.BadRequest(c, "Email is already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.BadRequest(c, "Invalid email or password")
	case errors.Is(err, services.ErrNotTeacher):
		apierrors.Forbidden(c, "Only teachers can view their students")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		apierrors.InternalError(c, "")
	}
}
