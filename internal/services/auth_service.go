package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/edtech-labs/learning-task-api/internal/auth"
	"github.com/edtech-labs/learning-task-api/internal/constants"
	"github.com/edtech-labs/learning-task-api/internal/models"
	"github.com/edtech-labs/learning-task-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrInvalidRole          = errors.New("invalid role")
	ErrTeacherRequired      = errors.New("teacher reference is required for students")
	ErrInvalidTeacher       = errors.New("teacher reference does not match an existing teacher")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotTeacher           = errors.New("caller is not a teacher")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Email     string
	Password  string
	Role      models.Role
	TeacherID *uint64
}

// Signup creates a new user. Students must reference an existing teacher.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	var teacherRef *uint64
	if input.Role == models.RoleStudent {
		if input.TeacherID == nil {
			return nil, ErrTeacherRequired
		}

		teacher, err := s.userRepo.FindTeacherByID(*input.TeacherID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidTeacher
			}
			return nil, fmt.Errorf("failed to check teacher: %w", err)
		}
		teacherRef = &teacher.ID
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         input.Role,
		TeacherID:    teacherRef,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult bundles the authenticated user, their resolved teacher
// (students only) and a fresh bearer token.
type LoginResult struct {
	User    *models.User
	Teacher *models.User
	Token   string
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password fail identically so callers cannot probe for accounts.
func (s *AuthService) Login(input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	teacher, err := s.ResolveTeacher(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:    user,
		Teacher: teacher,
		Token:   token,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// ResolveTeacher loads the teacher a student is linked to, or nil for
// teachers and unlinked users.
func (s *AuthService) ResolveTeacher(user *models.User) (*models.User, error) {
	if user.Role != models.RoleStudent || user.TeacherID == nil {
		return nil, nil
	}

	teacher, err := s.userRepo.FindByID(*user.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve teacher: %w", err)
	}

	return teacher, nil
}

// ListTeachers returns all teacher accounts, for the signup picker.
func (s *AuthService) ListTeachers() ([]models.User, error) {
	teachers, err := s.userRepo.ListTeachers()
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	return teachers, nil
}

// ListStudents returns the students assigned to the calling teacher.
func (s *AuthService) ListStudents(caller *models.User) ([]models.User, error) {
	if caller.Role != models.RoleTeacher {
		return nil, ErrNotTeacher
	}

	students, err := s.userRepo.ListStudentsOfTeacher(caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}
