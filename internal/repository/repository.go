package repository

import (
	"github.com/edtech-labs/learning-task-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindTeacherByID finds a user by ID that has the teacher role
	FindTeacherByID(id uint64) (*models.User, error)

	// ListTeachers lists all users with the teacher role
	ListTeachers() ([]models.User, error)

	// ListStudentsOfTeacher lists users whose teacher_id is the given teacher
	ListStudentsOfTeacher(teacherID uint64) ([]models.User, error)

	// ListStudentIDs lists the IDs of a teacher's students
	ListStudentIDs(teacherID uint64) ([]uint64, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID
	FindByID(id uint64) (*models.Task, error)

	// ListForOwners retrieves tasks owned by any of the given users,
	// newest first by creation time
	ListForOwners(ownerIDs []uint64) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete removes a task
	Delete(id uint64) error
}
