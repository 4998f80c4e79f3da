package service

import (
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"
	"strings"
)

// TopicAnalysisService 按(用户,主题)维护累计答题统计
type TopicAnalysisService struct {
	TopicRepo *repository.TopicAnalysisRepository
}

func NewTopicAnalysisService(topicRepo *repository.TopicAnalysisRepository) *TopicAnalysisService {
	return &TopicAnalysisService{TopicRepo: topicRepo}
}

// Merge 校验后把增量折叠进累计行。校验失败不产生任何写入。
func (s *TopicAnalysisService) Merge(userID uint, topic string, answeredDelta, correctDelta int, avgTimeSample float64) (*model.TopicAnalysis, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, util.ErrInvalidMerge
	}
	if topic == model.ReservedTopicGeneral {
		return nil, util.ErrReservedTopic
	}
	if answeredDelta <= 0 || correctDelta < 0 || correctDelta > answeredDelta || avgTimeSample < 0 {
		return nil, util.ErrInvalidMerge
	}

	return s.TopicRepo.Merge(userID, topic, answeredDelta, correctDelta, avgTimeSample)
}

func (s *TopicAnalysisService) ListByUser(userID uint) ([]model.TopicAnalysis, error) {
	return s.TopicRepo.FindByUser(userID)
}
