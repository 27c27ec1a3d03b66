package repository

import (
	"github.com/edtech-labs/learning-task-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindTeacherByID finds a user by ID that has the teacher role
func (r *GormUserRepository) FindTeacherByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ? AND role = ?", id, models.RoleTeacher).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListTeachers lists all users with the teacher role
func (r *GormUserRepository) ListTeachers() ([]models.User, error) {
	var teachers []models.User
	if err := r.db.Where("role = ?", models.RoleTeacher).
		Order("email ASC").
		Find(&teachers).Error; err != nil {
		return nil, err
	}
	return teachers, nil
}

// ListStudentsOfTeacher lists users whose teacher_id is the given teacher
func (r *GormUserRepository) ListStudentsOfTeacher(teacherID uint64) ([]models.User, error) {
	var students []models.User
	if err := r.db.Where("teacher_id = ?", teacherID).
		Order("email ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

// ListStudentIDs lists the IDs of a teacher's students
func (r *GormUserRepository) ListStudentIDs(teacherID uint64) ([]uint64, error) {
	var ids []uint64
	if err := r.db.Model(&models.User{}).
		Where("teacher_id = ?", teacherID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
