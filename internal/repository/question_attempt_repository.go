package repository

import (
	"quizprep_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionAttemptRepository struct {
	DB *gorm.DB
}

func NewQuestionAttemptRepository(db *gorm.DB) *QuestionAttemptRepository {
	return &QuestionAttemptRepository{DB: db}
}

func (r *QuestionAttemptRepository) Create(attempt *model.QuestionAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *QuestionAttemptRepository) CreateBatch(attempts []model.QuestionAttempt) error {
	if len(attempts) == 0 {
		return nil
	}
	return r.DB.Create(&attempts).Error
}

func (r *QuestionAttemptRepository) FindBySession(sessionID string) ([]model.QuestionAttempt, error) {
	var attempts []model.QuestionAttempt
	err := r.DB.Where("quiz_session_id = ?", sessionID).Order("attempted_at").Find(&attempts).Error
	return attempts, err
}

func (r *QuestionAttemptRepository) FindByUser(userID uint) ([]model.QuestionAttempt, error) {
	var attempts []model.QuestionAttempt
	err := r.DB.Where("user_id = ?", userID).Order("attempted_at").Find(&attempts).Error
	return attempts, err
}

// ResponseExtremes 用户作答用时的最值
type ResponseExtremes struct {
	Fastest float64
	Slowest float64
	Count   int64
}

func (r *QuestionAttemptRepository) TimeExtremesByUser(userID uint) (*ResponseExtremes, error) {
	var ex ResponseExtremes
	err := r.DB.Model(&model.QuestionAttempt{}).
		Select("COALESCE(MIN(time_taken),0) AS fastest, COALESCE(MAX(time_taken),0) AS slowest, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Scan(&ex).Error
	if err != nil {
		return nil, err
	}
	return &ex, nil
}
