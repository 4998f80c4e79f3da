package model

import "time"

// ReservedTopicGeneral 保留的主题标签，不允许作为统计桶写入
const ReservedTopicGeneral = "general"

// TopicAnalysis 按(用户,主题)累计的答题统计，accuracy永远由totals重新计算
// swagger:model TopicAnalysis
type TopicAnalysis struct {
	BaseModel
	UserID        uint      `gorm:"uniqueIndex:idx_user_topic;not null" json:"userId"`
	Topic         string    `gorm:"size:100;uniqueIndex:idx_user_topic;not null" json:"topic"`
	TotalAnswered int       `gorm:"not null" json:"totalAnswered"`
	TotalCorrect  int       `gorm:"not null" json:"totalCorrect"`
	Accuracy      float64   `json:"accuracy"`
	AvgTime       float64   `json:"avgTime"` // 加权滑动平均，秒
	LastPracticed time.Time `json:"lastPracticed"`
}

func (TopicAnalysis) TableName() string {
	return "topic_analyses"
}
