package database

import (
	"fmt"
	"log"

	"github.com/edtech-labs/learning-task-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes creates the indexes the task queries depend on. The unique
// index on users.email comes from the model tag; these cover the
// owner-scoped task listing and the teacher -> students lookup.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns string
	}{
		// Task listing filters by owner and sorts by creation time.
		{&models.Task{}, "tasks", "idx_tasks_user_id_created_at", "user_id, created_at"},

		// Teacher scope resolution filters users by teacher_id.
		{&models.User{}, "users", "idx_users_teacher_id", "teacher_id"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, idx.columns)
	}

	return nil
}
