package repository

import (
	"quizprep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserAnalysisRepository struct {
	DB *gorm.DB
}

func NewUserAnalysisRepository(db *gorm.DB) *UserAnalysisRepository {
	return &UserAnalysisRepository{DB: db}
}

func (r *UserAnalysisRepository) FindByUser(userID uint) (*model.UserAnalysis, error) {
	var row model.UserAnalysis
	err := r.DB.Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert 整行覆盖缓存，不做增量合并
func (r *UserAnalysisRepository) Upsert(row *model.UserAnalysis) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_quizzes",
			"total_questions_answered",
			"total_correct_options",
			"accuracy",
			"fastest_response",
			"slowest_response",
			"last_active",
			"updated_at",
		}),
	}).Create(row).Error
}
