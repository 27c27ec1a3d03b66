package dto

import (
	"github.com/edtech-labs/learning-task-api/internal/models"
)

// TeacherRefDTO is the resolved teacher embedded in a student's profile.
type TeacherRefDTO struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// UserDTO represents a user's public profile in API responses.
type UserDTO struct {
	ID        uint64         `json:"id"`
	Email     string         `json:"email"`
	Role      models.Role    `json:"role"`
	TeacherID *uint64        `json:"teacherId"`
	Teacher   *TeacherRefDTO `json:"teacher"`
}

// UserRefDTO is the minimal user shape used by the signup teacher picker
// and the students-of-teacher listing.
type UserRefDTO struct {
	ID    uint64 `json:"_id"`
	Email string `json:"email"`
}

// ToUserDTO converts a User model to UserDTO. teacher is the resolved
// teacher for students, nil otherwise.
func ToUserDTO(user models.User, teacher *models.User) UserDTO {
	dto := UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TeacherID: user.TeacherID,
	}

	if teacher != nil {
		dto.Teacher = &TeacherRefDTO{
			ID:    teacher.ID,
			Email: teacher.Email,
		}
	}

	return dto
}

// ToUserRefDTOs converts users to their minimal reference shape.
func ToUserRefDTOs(users []models.User) []UserRefDTO {
	refs := make([]UserRefDTO, len(users))
	for i, user := range users {
		refs[i] = UserRefDTO{
			ID:    user.ID,
			Email: user.Email,
		}
	}
	return refs
}
