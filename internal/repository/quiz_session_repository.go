package repository

import (
	"quizprep_backend/internal/model"

	"gorm.io/gorm"
)

type QuizSessionRepository struct {
	DB *gorm.DB
}

func NewQuizSessionRepository(db *gorm.DB) *QuizSessionRepository {
	return &QuizSessionRepository{DB: db}
}

func (r *QuizSessionRepository) Create(session *model.QuizSession) error {
	return r.DB.Create(session).Error
}

func (r *QuizSessionRepository) FindByID(id string) (*model.QuizSession, error) {
	var session model.QuizSession
	err := r.DB.Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *QuizSessionRepository) FindByUser(userID uint, limit int) ([]model.QuizSession, error) {
	var sessions []model.QuizSession
	query := r.DB.Where("user_id = ?", userID).Order("end_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}

// DistinctCompletionDates 返回用户完成过测验的去重日期（升序，"2006-01-02"）。
// 连续天数的权威数据源。
func (r *QuizSessionRepository) DistinctCompletionDates(userID uint) ([]string, error) {
	var dates []string
	err := r.DB.Raw(
		"SELECT DISTINCT date(end_time) FROM quiz_sessions WHERE user_id = ? AND deleted_at IS NULL ORDER BY 1",
		userID,
	).Scan(&dates).Error
	return dates, err
}

// SessionTotals 聚合一个用户的全部测验记录
type SessionTotals struct {
	TotalQuizzes      int64
	SumTotalQuestions int64
	SumCorrectOptions int64
}

func (r *QuizSessionRepository) AggregateByUser(userID uint) (*SessionTotals, error) {
	var totals SessionTotals
	err := r.DB.Model(&model.QuizSession{}).
		Select("COUNT(*) AS total_quizzes, COALESCE(SUM(total_questions),0) AS sum_total_questions, COALESCE(SUM(correct_options),0) AS sum_correct_options").
		Where("user_id = ?", userID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
