package model

import "time"

// StreakRecord 连续练习天数的缓存行。权威值由用户完成测验的
// 去重日期集合重新计算，每次写路径全量覆盖，不做增量修补。
// swagger:model StreakRecord
type StreakRecord struct {
	BaseModel
	UserID         uint      `gorm:"uniqueIndex;not null" json:"userId"`
	CurrentStreak  int       `json:"currentStreak"`
	LongestStreak  int       `json:"longestStreak"`
	LastActiveDate time.Time `json:"lastActiveDate"` // 仅日期部分有意义
}

func (StreakRecord) TableName() string {
	return "streak_records"
}
