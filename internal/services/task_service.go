package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edtech-labs/learning-task-api/internal/models"
	"github.com/edtech-labs/learning-task-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrNotTaskOwner    = errors.New("user is not the task owner")
	ErrTitleRequired   = errors.New("title is required")
	ErrTitleEmpty      = errors.New("title cannot be empty")
	ErrInvalidProgress = errors.New("invalid progress value")
	ErrStudentRequired = errors.New("teacher must select a student")
	ErrNotYourStudent  = errors.New("student is not assigned to this teacher")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Progress    models.Progress
	StudentID   *uint64
}

// UpdateTaskInput represents input for a partial task update. Only the
// fields that were present in the request are non-nil.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Progress    *models.Progress
}

// ListTasks returns the tasks visible to the current user: students see
// their own tasks, teachers see their own plus their students', newest
// first.
func (s *TaskService) ListTasks(current *models.User) ([]models.Task, error) {
	ownerIDs := []uint64{current.ID}

	if current.Role == models.RoleTeacher {
		studentIDs, err := s.userRepo.ListStudentIDs(current.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve students: %w", err)
		}
		ownerIDs = append(ownerIDs, studentIDs...)
	}

	tasks, err := s.taskRepo.ListForOwners(ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// CreateTask creates a new task. A teacher must pick one of their own
// students, who becomes the owner; a student always owns the task
// themselves.
func (s *TaskService) CreateTask(current *models.User, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	if input.Progress == "" {
		input.Progress = models.ProgressNotStarted
	}
	if !input.Progress.Valid() {
		return nil, ErrInvalidProgress
	}

	ownerID := current.ID
	if current.Role == models.RoleTeacher {
		if input.StudentID == nil {
			return nil, ErrStudentRequired
		}

		student, err := s.userRepo.FindByID(*input.StudentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotYourStudent
			}
			return nil, fmt.Errorf("failed to check student: %w", err)
		}
		if student.TeacherID == nil || *student.TeacherID != current.ID {
			return nil, ErrNotYourStudent
		}

		ownerID = student.ID
	}

	task := &models.Task{
		UserID:      ownerID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Progress:    input.Progress,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// UpdateTask applies a partial update. Only the exact owner may update a
// task; a teacher cannot touch tasks they assigned to students.
func (s *TaskService) UpdateTask(current *models.User, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.UserID != current.ID {
		return nil, ErrNotTaskOwner
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Progress != nil {
		if !input.Progress.Valid() {
			return nil, ErrInvalidProgress
		}
		task.Progress = *input.Progress
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// DeleteTask removes a task, with the same ownership rule as UpdateTask.
func (s *TaskService) DeleteTask(current *models.User, taskID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if task.UserID != current.ID {
		return ErrNotTaskOwner
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}
