package service

import (
	"context"
	"encoding/json"
	"fmt"
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"
	"quizprep_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const userAnalysisCacheTTL = 10 * time.Minute

// UserAnalysisService 用户维度汇总。totals永远从源表重新聚合，
// 数据库行和Redis副本都只是整行覆盖的缓存。
type UserAnalysisService struct {
	SessionRepo  *repository.QuizSessionRepository
	AttemptRepo  *repository.QuestionAttemptRepository
	AnalysisRepo *repository.UserAnalysisRepository
	Redis        *redis.Client
}

func NewUserAnalysisService(
	sessionRepo *repository.QuizSessionRepository,
	attemptRepo *repository.QuestionAttemptRepository,
	analysisRepo *repository.UserAnalysisRepository,
	rdb *redis.Client,
) *UserAnalysisService {
	return &UserAnalysisService{
		SessionRepo:  sessionRepo,
		AttemptRepo:  attemptRepo,
		AnalysisRepo: analysisRepo,
		Redis:        rdb,
	}
}

func userAnalysisCacheKey(userID uint) string {
	return fmt.Sprintf("user:analysis:%d", userID)
}

// Recompute 从quiz_sessions/question_attempts全量聚合，不读取旧缓存行
func (s *UserAnalysisService) Recompute(userID uint) (*model.UserAnalysis, error) {
	totals, err := s.SessionRepo.AggregateByUser(userID)
	if err != nil {
		return nil, err
	}

	extremes, err := s.AttemptRepo.TimeExtremesByUser(userID)
	if err != nil {
		return nil, err
	}

	accuracy := 0.0
	if totals.SumTotalQuestions > 0 {
		accuracy = util.Round2(float64(totals.SumCorrectOptions) / float64(totals.SumTotalQuestions) * 100)
	}

	var lastActive time.Time
	recent, err := s.SessionRepo.FindByUser(userID, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) > 0 {
		lastActive = recent[0].EndTime
	}

	return &model.UserAnalysis{
		UserID:                 userID,
		TotalQuizzes:           int(totals.TotalQuizzes),
		TotalQuestionsAnswered: int(totals.SumTotalQuestions),
		TotalCorrectOptions:    int(totals.SumCorrectOptions),
		Accuracy:               accuracy,
		FastestResponse:        extremes.Fastest,
		SlowestResponse:        extremes.Slowest,
		LastActive:             lastActive,
	}, nil
}

// Refresh 重算并整行覆盖数据库行与Redis副本
func (s *UserAnalysisService) Refresh(userID uint) (*model.UserAnalysis, error) {
	row, err := s.Recompute(userID)
	if err != nil {
		return nil, err
	}

	if err := s.AnalysisRepo.Upsert(row); err != nil {
		return nil, err
	}

	s.cacheSet(row)
	return row, nil
}

// GetAnalysis 读路径：优先Redis缓存，未命中时重算刷新
func (s *UserAnalysisService) GetAnalysis(userID uint, forceRefresh bool) (*model.UserAnalysis, error) {
	if !forceRefresh {
		if cached := s.cacheGet(userID); cached != nil {
			return cached, nil
		}
	}
	return s.Refresh(userID)
}

func (s *UserAnalysisService) cacheSet(row *model.UserAnalysis) {
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return
	}
	if err := s.Redis.Set(context.Background(), userAnalysisCacheKey(row.UserID), payload, userAnalysisCacheTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache user analysis", zap.Uint("userId", row.UserID), zap.Error(err))
	}
}

func (s *UserAnalysisService) cacheGet(userID uint) *model.UserAnalysis {
	if s.Redis == nil {
		return nil
	}
	payload, err := s.Redis.Get(context.Background(), userAnalysisCacheKey(userID)).Bytes()
	if err != nil {
		return nil
	}
	var row model.UserAnalysis
	if err := json.Unmarshal(payload, &row); err != nil {
		return nil
	}
	return &row
}
