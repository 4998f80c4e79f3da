package model

import "time"

// QuestionAttempt 单题作答记录，写入后不可变
// swagger:model QuestionAttempt
type QuestionAttempt struct {
	BaseModel
	UserID         uint      `gorm:"index;not null" json:"userId"`
	QuestionID     uint      `gorm:"index;not null" json:"questionId"`
	QuizSessionID  string    `gorm:"type:varchar(36);index" json:"quizSessionId"`
	SelectedOption string    `gorm:"size:255" json:"selectedOption"`
	IsCorrect      bool      `gorm:"not null" json:"isCorrect"`
	TimeTaken      float64   `json:"timeTaken"` // 秒
	AttemptedAt    time.Time `json:"attemptedAt"`
}

func (QuestionAttempt) TableName() string {
	return "question_attempts"
}
