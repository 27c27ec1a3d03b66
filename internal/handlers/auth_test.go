package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edtech-labs/learning-task-api/internal/auth"
	"github.com/edtech-labs/learning-task-api/internal/constants"
	"github.com/edtech-labs/learning-task-api/internal/database"
	"github.com/edtech-labs/learning-task-api/internal/dto"
	"github.com/edtech-labs/learning-task-api/internal/middleware"
	"github.com/edtech-labs/learning-task-api/internal/models"
	"github.com/edtech-labs/learning-task-api/internal/ratelimit"
	"github.com/edtech-labs/learning-task-api/internal/repository"
	"github.com/edtech-labs/learning-task-api/internal/services"
)

// envelope matches the API's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *dto.UserDTO    `json:"user"`
	Data    json.RawMessage `json:"data"`
}

type stubLimiter struct {
	allowed bool
}

func (s stubLimiter) Allow(ctx context.Context, key string) (*ratelimit.Result, error) {
	return &ratelimit.Result{Allowed: s.allowed, Limit: constants.LoginRateLimit}, nil
}

type authTestEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	authService *services.AuthService
	tokens      *auth.TokenManager
}

func setupAuthTestEnv(t *testing.T, limiter ratelimit.Limiter) authTestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Task{})
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	tokens := auth.NewTokenManager("test-secret", constants.TokenTTL, constants.TokenIssuer)
	authService := services.NewAuthService(userRepo, tokens)
	handler := NewAuthHandler(authService)
	requireAuth := middleware.RequireAuth(tokens, userRepo)

	r := gin.New()
	r.POST("/auth/signup", handler.Signup)
	r.POST("/auth/login", middleware.LoginRateLimit(limiter), handler.Login)
	r.GET("/auth/me", requireAuth, handler.GetCurrentUser)
	r.GET("/auth/teachers-list", handler.ListTeachers)
	r.GET("/auth/students-of-teacher", requireAuth, handler.ListStudents)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{
		db:          db,
		router:      r,
		authService: authService,
		tokens:      tokens,
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, url string, payload any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var res envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func mustSignupTeacher(t *testing.T, env authTestEnv, email string) *models.User {
	t.Helper()

	user, err := env.authService.Signup(services.SignupInput{
		Email:    email,
		Password: "supersecret",
		Role:     models.RoleTeacher,
	})
	require.NoError(t, err)
	return user
}

func mustSignupStudent(t *testing.T, env authTestEnv, email string, teacherID uint64) *models.User {
	t.Helper()

	user, err := env.authService.Signup(services.SignupInput{
		Email:     email,
		Password:  "supersecret",
		Role:      models.RoleStudent,
		TeacherID: &teacherID,
	})
	require.NoError(t, err)
	return user
}

func TestAuthHandler_Signup(t *testing.T) {
	env := setupAuthTestEnv(t, nil)

	w := doJSON(t, env.router, http.MethodPost, "/auth/signup", map[string]any{
		"email":    "teacher@example.com",
		"password": "supersecret",
		"role":     "teacher",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)
	res := decodeEnvelope(t, w)
	require.True(t, res.Success)
	require.Equal(t, "User registered successfully", res.Message)

	// The stored password is hashed, never the plaintext.
	var stored models.User
	require.NoError(t, env.db.Where("email = ?", "teacher@example.com").First(&stored).Error)
	require.NotEqual(t, "supersecret", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("supersecret")))
}

func TestAuthHandler_Signup_Validation(t *testing.T) {
	env := setupAuthTestEnv(t, nil)
	teacher := mustSignupTeacher(t, env, "teacher@example.com")

	bogusTeacherID := teacher.ID + 1000
	student := mustSignupStudent(t, env, "student@example.com", teacher.ID)

	tests := []struct {
		name        string
		payload     map[string]any
		wantMessage string
	}{
		{
			name: "malformed email",
			payload: map[string]any{
				"email":    "not-an-email",
				"password": "supersecret",
				"role":     "teacher",
			},
			wantMessage: "Valid email is required",
		},
		{
			name: "short password",
			payload: map[string]any{
				"email":    "short@example.com",
				"password": "12345",
				"role":     "teacher",
			},
			wantMessage: "Password must be at least 6 characters",
		},
		{
			name: "unknown role",
			payload: map[string]any{
				"email":    "role@example.com",
				"password": "supersecret",
				"role":     "admin",
			},
			wantMessage: "Role must be student or teacher",
		},
		{
			name: "student without teacher",
			payload: map[string]any{
				"email":    "orphan@example.com",
				"password": "supersecret",
				"role":     "student",
			},
			wantMessage: "teacherId is required for students",
		},
		{
			name: "student with nonexistent teacher",
			payload: map[string]any{
				"email":     "lost@example.com",
				"password":  "supersecret",
				"role":      "student",
				"teacherId": bogusTeacherID,
			},
			wantMessage: "Invalid teacherId for student",
		},
		{
			name: "student referencing another student",
			payload: map[string]any{
				"email":     "peer@example.com",
				"password":  "supersecret",
				"role":      "student",
				"teacherId": student.ID,
			},
			wantMessage: "Invalid teacherId for student",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, env.router, http.MethodPost, "/auth/signup", tt.payload, "")

			require.Equal(t, http.StatusBadRequest, w.Code)
			res := decodeEnvelope(t, w)
			require.False(t, res.Success)
			require.Equal(t, tt.wantMessage, res.Message)
		})
	}
}

func TestAuthHandler_Signup_DuplicateEmail(t *testing.T) {
	env := setupAuthTestEnv(t, nil)
	teacher := mustSignupTeacher(t, env, "taken@example.com")

	// Different password and role make no difference.
	w := doJSON(t, env.router, http.MethodPost, "/auth/signup", map[string]any{
		"email":     "taken@example.com",
		"password":  "otherpassword",
		"role":      "student",
		"teacherId": teacher.ID,
	}, "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	res := decodeEnvelope(t, w)
	require.Equal(t, "Email is already registered", res.Message)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t, nil)
	teacher := mustSignupTeacher(t, env, "teacher@example.com")
	student := mustSignupStudent(t, env, "student@example.com", teacher.ID)

	w := doJSON(t, env.router, http.MethodPost, "/auth/login", map[string]any{
		"email":    "student@example.com",
		"password": "supersecret",
	}, "")

	require.Equal(t, http.StatusOK, w.Code)
	res := decodeEnvelope(t, w)
	require.True(t, res.Success)
	require.NotEmpty(t, res.Token)

	// The token resolves back to the student.
	userID, err := env.tokens.Validate(res.Token)
	require.NoError(t, err)
	require.Equal(t, student.ID, userID)

	require.NotNil(t, res.User)
	require.Equal(t, student.Email, res.User.Email)
	require.Equal(t, models.RoleStudent, res.User.Role)
	require.NotNil(t, res.User.TeacherID)
	require.Equal(t, teacher.ID, *res.User.TeacherID)
	require.NotNil(t, res.User.Teacher)
	require.Equal(t, teacher.Email, res.User.Teacher.Email)
}

func TestAuthHandler_Login_GenericFailureMessage(t *testing.T) {
	env := setupAuthTestEnv(t, nil)
	mustSignupTeacher(t, env, "teacher@example.com")

	unknown := doJSON(t, env.router, http.MethodPost, "/auth/login", map[string]any{
		"email":    "nobody@example.com",
		"password": "supersecret",
	}, "")
	wrongPassword := doJSON(t, env.router, http.MethodPost, "/auth/login", map[string]any{
		"email":    "teacher@example.com",
		"password": "wrongpassword",
	}, "")

	require.Equal(t, http.StatusBadRequest, unknown.Code)
	require.Equal(t, http.StatusBadRequest, wrongPassword.Code)

	// Identical response either way, so the endpoint can't be used to
	// probe which emails exist.
	require.Equal(t, "Invalid email or password", decodeEnvelope(t, unknown).Message)
	require.Equal(t, decodeEnvelope(t, unknown).Message, decodeEnvelope(t, wrongPassword).Message)
}

func TestAuthHandler_Login_RateLimited(t *testing.T) {
	env := setupAuthTestEnv(t, stubLimiter{allowed: false})
	mustSignupTeacher(t, env, "teacher@example.com")

	// Even valid credentials get throttled.
	w := doJSON(t, env.router, http.MethodPost, "/auth/login", map[string]any{
		"email":    "teacher@example.com",
		"password": "supersecret",
	}, "")

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	res := decodeEnvelope(t, w)
	require.False(t, res.Success)
	require.Equal(t, "Too many login attempts, please try again later", res.Message)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupAuthTestEnv(t, nil)
	teacher := mustSignupTeacher(t, env, "teacher@example.com")

	token, err := env.tokens.Generate(teacher.ID)
	require.NoError(t, err)

	w := doJSON(t, env.router, http.MethodGet, "/auth/me", nil, token)

	require.Equal(t, http.StatusOK, w.Code)
	res := decodeEnvelope(t, w)
	require.NotNil(t, res.User)
	require.Equal(t, teacher.Email, res.User.Email)
	require.Nil(t, res.User.Teacher)
}

func TestAuthHandler_GetCurrentUser_BadToken(t *testing.T) {
	env := setupAuthTestEnv(t, nil)
	teacher := mustSignupTeacher(t, env, "teacher@example.com")

	deletedUserToken, err := env.tokens.Generate(teacher.ID + 1000)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "garbage"},
		{name: "token for deleted user", token: deletedUserToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, env.router, http.MethodGet, "/auth/me", nil, tt.token)
			require.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthHandler_ListTeachers(t *testing.T) {
	env := setupAuthTestEnv(t, nil)
	teacher := mustSignupTeacher(t, env, "teacher@example.com")
	mustSignupStudent(t, env, "student@example.com", teacher.ID)

	w := doJSON(t, env.router, http.MethodGet, "/auth/teachers-list", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	res := decodeEnvelope(t, w)

	var refs []dto.UserRefDTO
	require.NoError(t, json.Unmarshal(res.Data, &refs))
	require.Len(t, refs, 1)
	require.Equal(t, teacher.ID, refs[0].ID)
	require.Equal(t, teacher.Email, refs[0].Email)
}

func TestAuthHandler_ListStudents(t *testing.T) {
	env := setupAuthTestEnv(t, nil)
	teacher := mustSignupTeacher(t, env, "teacher@example.com")
	other := mustSignupTeacher(t, env, "other@example.com")
	student := mustSignupStudent(t, env, "student@example.com", teacher.ID)
	mustSignupStudent(t, env, "foreign@example.com", other.ID)

	token, err := env.tokens.Generate(teacher.ID)
	require.NoError(t, err)

	w := doJSON(t, env.router, http.MethodGet, "/auth/students-of-teacher", nil, token)

	require.Equal(t, http.StatusOK, w.Code)
	res := decodeEnvelope(t, w)

	var refs []dto.UserRefDTO
	require.NoError(t, json.Unmarshal(res.Data, &refs))
	require.Len(t, refs, 1)
	require.Equal(t, student.ID, refs[0].ID)
}

func TestAuthHandler_ListStudents_StudentForbidden(t *testing.T) {
	env := setupAuthTestEnv(t, nil)
	teacher := mustSignupTeacher(t, env, "teacher@example.com")
	student := mustSignupStudent(t, env, "student@example.com", teacher.ID)

	token, err := env.tokens.Generate(student.ID)
	require.NoError(t, err)

	w := doJSON(t, env.router, http.MethodGet, "/auth/students-of-teacher", nil, token)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "Only teachers can view their students", decodeEnvelope(t, w).Message)
}
