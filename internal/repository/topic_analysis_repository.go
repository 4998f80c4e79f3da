package repository

import (
	"errors"
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// mergeRetries 乐观合并的最大重试次数
const mergeRetries = 5

type TopicAnalysisRepository struct {
	DB *gorm.DB
}

func NewTopicAnalysisRepository(db *gorm.DB) *TopicAnalysisRepository {
	return &TopicAnalysisRepository{DB: db}
}

func (r *TopicAnalysisRepository) FindByUser(userID uint) ([]model.TopicAnalysis, error) {
	var rows []model.TopicAnalysis
	err := r.DB.Where("user_id = ?", userID).Order("topic").Find(&rows).Error
	return rows, err
}

func (r *TopicAnalysisRepository) FindByUserAndTopic(userID uint, topic string) (*model.TopicAnalysis, error) {
	var row model.TopicAnalysis
	err := r.DB.Where("user_id = ? AND topic = ?", userID, topic).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Merge 将增量合并进(user,topic)的累计行。读改写以当前行值为基准，
// 通过"total_answered未变"的条件更新做乐观并发控制：并发合并抢先提交时
// 本次更新影响0行，重读后重试，绝不丢增量。
func (r *TopicAnalysisRepository) Merge(userID uint, topic string, answeredDelta, correctDelta int, avgTimeSample float64) (*model.TopicAnalysis, error) {
	now := time.Now()

	for attempt := 0; attempt < mergeRetries; attempt++ {
		var row model.TopicAnalysis
		err := r.DB.Where("user_id = ? AND topic = ?", userID, topic).First(&row).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = model.TopicAnalysis{
				UserID:        userID,
				Topic:         topic,
				TotalAnswered: answeredDelta,
				TotalCorrect:  correctDelta,
				Accuracy:      util.Round2(float64(correctDelta) / float64(answeredDelta) * 100),
				AvgTime:       avgTimeSample,
				LastPracticed: now,
			}
			if createErr := r.DB.Create(&row).Error; createErr != nil {
				// 唯一键冲突说明并发首写抢先，重读后走更新路径
				continue
			}
			return &row, nil
		}
		if err != nil {
			return nil, err
		}

		oldAnswered := row.TotalAnswered
		newAnswered := oldAnswered + answeredDelta
		newCorrect := row.TotalCorrect + correctDelta
		newAvg := (row.AvgTime*float64(oldAnswered) + avgTimeSample*float64(answeredDelta)) / float64(newAnswered)

		res := r.DB.Model(&model.TopicAnalysis{}).
			Where("id = ? AND total_answered = ?", row.ID, oldAnswered).
			Updates(map[string]interface{}{
				"total_answered": newAnswered,
				"total_correct":  newCorrect,
				"accuracy":       util.Round2(float64(newCorrect) / float64(newAnswered) * 100),
				"avg_time":       newAvg,
				"last_practiced": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return r.FindByUserAndTopic(userID, topic)
		}
		// 其他合并先行提交，重试
	}

	return nil, util.ErrMergeContention
}
