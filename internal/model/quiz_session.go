package model

import "time"

// QuizSession 一次完整的测验记录，完成时落库，此后不可变
// swagger:model QuizSession
type QuizSession struct {
	UUIDBase
	UserID             uint       `gorm:"index;not null" json:"userId"`
	TotalQuestions     int        `gorm:"not null" json:"totalQuestions"`
	CorrectOptions     int        `gorm:"not null" json:"correctOptions"`
	Accuracy           float64    `json:"accuracy"`
	Duration           int        `json:"duration"` // 秒
	AvgTimePerQuestion float64    `json:"avgTimePerQuestion"`
	TopicsCovered      StringList `gorm:"type:json" json:"topicsCovered"`
	StartTime          time.Time  `json:"startTime"`
	EndTime            time.Time  `json:"endTime"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}
