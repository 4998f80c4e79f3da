package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringList 以JSON数组形式存储的字符串列表
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for StringList")
	}
}

// Question 题库中的一道选择题
// swagger:model Question
type Question struct {
	BaseModel
	Text          string     `gorm:"type:text;not null" json:"text"`
	Options       StringList `gorm:"type:json" json:"options"`
	CorrectOption string     `gorm:"size:255;not null" json:"-"`
	Topic         string     `gorm:"size:100;index;not null" json:"topic"`
	Difficulty    string     `gorm:"size:20;default:medium" json:"difficulty"`
	Active        bool       `gorm:"default:true" json:"active"`
}

func (Question) TableName() string {
	return "questions"
}
