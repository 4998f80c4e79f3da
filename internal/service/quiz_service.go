package service

import (
	"math/rand"
	"quizprep_backend/internal/config"
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"
	"quizprep_backend/pkg/logger"
	"quizprep_backend/pkg/monitoring"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ScoredAnswer 一道已判分的答题记录，完成处理的输入单元
type ScoredAnswer struct {
	QuestionID     uint
	Topic          string
	SelectedOption string
	CorrectOption  string
	IsCorrect      bool
	TimeTaken      float64 // 秒
}

// AnswerSubmission Web端完成时随提交的单题作答（服务端判分）
type AnswerSubmission struct {
	QuestionID     uint    `json:"questionId" binding:"required"`
	SelectedOption string  `json:"selectedOption"`
	TimeTaken      float64 `json:"timeTaken"`
}

// CompletionInput Web端整卷提交的完成记录
type CompletionInput struct {
	TotalQuestions     int                `json:"totalQuestions"`
	CorrectOptions     int                `json:"correctOptions"`
	Duration           int                `json:"duration"`
	AvgTimePerQuestion float64            `json:"avgTimePerQuestion"`
	TopicsCovered      []string           `json:"topicsCovered"`
	StartTime          time.Time          `json:"startTime"`
	EndTime            time.Time          `json:"endTime"`
	Answers            []AnswerSubmission `json:"answers"`
}

// QuizService 测验交付引擎与完成处理。Web端无状态（客户端持有进度，
// 完成时整卷提交），聊天端由ChatQuizService基于会话存储走增量路径，
// 两条路径的完成处理汇聚到这里。
type QuizService struct {
	QuestionRepo *repository.QuestionRepository
	SessionRepo  *repository.QuizSessionRepository
	AttemptRepo  *repository.QuestionAttemptRepository

	StreakService       *StreakService
	TopicService        *TopicAnalysisService
	UserAnalysisService *UserAnalysisService

	Cfg *config.Config
}

func NewQuizService(
	questionRepo *repository.QuestionRepository,
	sessionRepo *repository.QuizSessionRepository,
	attemptRepo *repository.QuestionAttemptRepository,
	streakService *StreakService,
	topicService *TopicAnalysisService,
	userAnalysisService *UserAnalysisService,
	cfg *config.Config,
) *QuizService {
	return &QuizService{
		QuestionRepo:        questionRepo,
		SessionRepo:         sessionRepo,
		AttemptRepo:         attemptRepo,
		StreakService:       streakService,
		TopicService:        topicService,
		UserAnalysisService: userAnalysisService,
		Cfg:                 cfg,
	}
}

// StartQuiz 选出一组固定顺序的题目。顺序在返回时即确定，运行中不再洗牌。
func (s *QuizService) StartQuiz(topic, difficulty string, count int) ([]model.Question, error) {
	if count <= 0 {
		count = s.Cfg.Quiz.DefaultQuestionCount
	}
	if count > s.Cfg.Quiz.MaxQuestionCount {
		count = s.Cfg.Quiz.MaxQuestionCount
	}

	questions, err := s.QuestionRepo.FindActive(topic, difficulty)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, util.ErrNoQuestions
	}

	shuffled := make([]model.Question, len(questions))
	copy(shuffled, questions)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if count < len(shuffled) {
		shuffled = shuffled[:count]
	}
	return shuffled, nil
}

// ScoreSubmissions 服务端对整卷提交重新判分，不信任客户端的判分结果
func (s *QuizService) ScoreSubmissions(submissions []AnswerSubmission) ([]ScoredAnswer, error) {
	ids := make([]uint, 0, len(submissions))
	for _, sub := range submissions {
		ids = append(ids, sub.QuestionID)
	}

	questions, err := s.QuestionRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	scored := make([]ScoredAnswer, 0, len(submissions))
	for _, sub := range submissions {
		q, ok := byID[sub.QuestionID]
		if !ok {
			return nil, util.ErrNoQuestions
		}
		selected := sub.SelectedOption
		if selected == "" {
			selected = UnansweredOption
		}
		scored = append(scored, ScoredAnswer{
			QuestionID:     q.ID,
			Topic:          q.Topic,
			SelectedOption: selected,
			CorrectOption:  q.CorrectOption,
			IsCorrect:      ScoreAnswer(selected, q.CorrectOption),
			TimeTaken:      sub.TimeTaken,
		})
	}
	return scored, nil
}

// RecordScoredCompletion 持久化一次完成的测验并触发全部派生统计更新。
// 聊天端与带答题明细的Web端提交共用此路径。
func (s *QuizService) RecordScoredCompletion(userID uint, answers []ScoredAnswer, start, end time.Time, transport string) (*model.QuizSession, error) {
	if len(answers) == 0 {
		return nil, util.ErrInvalidCompletion
	}
	if end.Before(start) {
		return nil, util.ErrInvalidCompletion
	}

	correct := 0
	totalTime := 0.0
	topicSet := map[string]bool{}
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
		totalTime += a.TimeTaken
		if a.Topic != "" {
			topicSet[a.Topic] = true
		}
	}

	topics := make(model.StringList, 0, len(topicSet))
	for t := range topicSet {
		topics = append(topics, t)
	}

	total := len(answers)
	session := &model.QuizSession{
		UserID:             userID,
		TotalQuestions:     total,
		CorrectOptions:     correct,
		Accuracy:           util.Round2(float64(correct) / float64(total) * 100),
		Duration:           int(end.Sub(start).Seconds()),
		AvgTimePerQuestion: util.Round2(totalTime / float64(total)),
		TopicsCovered:      topics,
		StartTime:          start,
		EndTime:            end,
	}

	if err := s.SessionRepo.Create(session); err != nil {
		return nil, err
	}

	attempts := make([]model.QuestionAttempt, 0, len(answers))
	for _, a := range answers {
		attempts = append(attempts, model.QuestionAttempt{
			UserID:         userID,
			QuestionID:     a.QuestionID,
			QuizSessionID:  session.ID,
			SelectedOption: a.SelectedOption,
			IsCorrect:      a.IsCorrect,
			TimeTaken:      a.TimeTaken,
			AttemptedAt:    end,
		})
		monitoring.AnswerScoredCounter.WithLabelValues(transport, strconv.FormatBool(a.IsCorrect)).Inc()
	}
	if err := s.AttemptRepo.CreateBatch(attempts); err != nil {
		return nil, err
	}

	s.fanOutCompletion(userID, answers)

	monitoring.QuizCompletedCounter.WithLabelValues(transport).Inc()
	return session, nil
}

// RecordAggregateCompletion 仅有汇总数字的Web端提交（无单题明细）。
// 会话照常落库并刷新连续天数与用户汇总；主题统计由单独的合并接口负责。
func (s *QuizService) RecordAggregateCompletion(userID uint, input CompletionInput, transport string) (*model.QuizSession, error) {
	if input.TotalQuestions <= 0 || input.CorrectOptions < 0 || input.CorrectOptions > input.TotalQuestions {
		return nil, util.ErrInvalidCompletion
	}

	start := input.StartTime
	end := input.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.Add(-time.Duration(input.Duration) * time.Second)
	}
	if end.Before(start) {
		return nil, util.ErrInvalidCompletion
	}

	session := &model.QuizSession{
		UserID:             userID,
		TotalQuestions:     input.TotalQuestions,
		CorrectOptions:     input.CorrectOptions,
		Accuracy:           util.Round2(float64(input.CorrectOptions) / float64(input.TotalQuestions) * 100),
		Duration:           input.Duration,
		AvgTimePerQuestion: input.AvgTimePerQuestion,
		TopicsCovered:      model.StringList(input.TopicsCovered),
		StartTime:          start,
		EndTime:            end,
	}

	if err := s.SessionRepo.Create(session); err != nil {
		return nil, err
	}

	s.refreshAggregates(userID)

	monitoring.QuizCompletedCounter.WithLabelValues(transport).Inc()
	return session, nil
}

// RecordAttempt 单题作答记录，写入后不可变。已知题目时服务端重新判分。
func (s *QuizService) RecordAttempt(userID uint, questionID uint, sessionID, selectedOption string, clientIsCorrect bool, timeTaken float64) (*model.QuestionAttempt, error) {
	if selectedOption == "" {
		selectedOption = UnansweredOption
	}

	isCorrect := clientIsCorrect
	if q, err := s.QuestionRepo.FindByID(questionID); err == nil {
		isCorrect = ScoreAnswer(selectedOption, q.CorrectOption)
	}

	attempt := &model.QuestionAttempt{
		UserID:         userID,
		QuestionID:     questionID,
		QuizSessionID:  sessionID,
		SelectedOption: selectedOption,
		IsCorrect:      isCorrect,
		TimeTaken:      timeTaken,
		AttemptedAt:    time.Now(),
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// fanOutCompletion 完成事件的派生统计更新：按主题合并、连续天数、用户汇总。
// 每个写入都是一次性提交，失败只记录日志，由调用方重新触发。
func (s *QuizService) fanOutCompletion(userID uint, answers []ScoredAnswer) {
	type topicAgg struct {
		answered int
		correct  int
		timeSum  float64
	}
	byTopic := map[string]*topicAgg{}
	for _, a := range answers {
		if a.Topic == "" || a.Topic == model.ReservedTopicGeneral {
			continue
		}
		agg, ok := byTopic[a.Topic]
		if !ok {
			agg = &topicAgg{}
			byTopic[a.Topic] = agg
		}
		agg.answered++
		if a.IsCorrect {
			agg.correct++
		}
		agg.timeSum += a.TimeTaken
	}

	for topic, agg := range byTopic {
		avg := agg.timeSum / float64(agg.answered)
		if _, err := s.TopicService.Merge(userID, topic, agg.answered, agg.correct, avg); err != nil {
			logger.Log.Error("topic analysis merge failed",
				zap.Uint("userId", userID), zap.String("topic", topic), zap.Error(err))
		}
	}

	s.refreshAggregates(userID)
}

func (s *QuizService) refreshAggregates(userID uint) {
	if _, err := s.StreakService.Refresh(userID); err != nil {
		logger.Log.Error("streak refresh failed", zap.Uint("userId", userID), zap.Error(err))
	}
	if _, err := s.UserAnalysisService.Refresh(userID); err != nil {
		logger.Log.Error("user analysis refresh failed", zap.Uint("userId", userID), zap.Error(err))
	}
}
