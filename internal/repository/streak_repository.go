package repository

import (
	"quizprep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

func (r *StreakRepository) FindByUser(userID uint) (*model.StreakRecord, error) {
	var record model.StreakRecord
	err := r.DB.Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert 整行覆盖缓存，权威值始终由完成日期历史重算
func (r *StreakRepository) Upsert(record *model.StreakRecord) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_streak",
			"longest_streak",
			"last_active_date",
			"updated_at",
		}),
	}).Create(record).Error
}
