package model

import "time"

// UserAnalysis 用户维度的汇总缓存行。权威数据始终可由
// quiz_sessions/question_attempts重新聚合得到，此行只为省去读路径上的重算。
// swagger:model UserAnalysis
type UserAnalysis struct {
	BaseModel
	UserID                 uint      `gorm:"uniqueIndex;not null" json:"userId"`
	TotalQuizzes           int       `json:"totalQuizzes"`
	TotalQuestionsAnswered int       `json:"totalQuestionsAnswered"`
	TotalCorrectOptions    int       `json:"totalCorrectOptions"`
	Accuracy               float64   `json:"accuracy"`
	FastestResponse        float64   `json:"fastestResponse"` // 秒
	SlowestResponse        float64   `json:"slowestResponse"` // 秒
	LastActive             time.Time `json:"lastActive"`
}

func (UserAnalysis) TableName() string {
	return "user_analyses"
}
