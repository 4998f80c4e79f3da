package service

import (
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// StreakService 由完成日期历史重算连续练习天数。
// 读写两条路径共用同一算法，存储行只是缓存。
type StreakService struct {
	SessionRepo *repository.QuizSessionRepository
	StreakRepo  *repository.StreakRepository
}

func NewStreakService(sessionRepo *repository.QuizSessionRepository, streakRepo *repository.StreakRepository) *StreakService {
	return &StreakService{
		SessionRepo: sessionRepo,
		StreakRepo:  streakRepo,
	}
}

// ComputeStreaks 对升序去重日期序列做单次扫描。
// current只在最近一次活动是今天或昨天时保留，否则归零。
func ComputeStreaks(dates []time.Time, today time.Time) (current, longest int, lastActive time.Time) {
	if len(dates) == 0 {
		return 0, 0, time.Time{}
	}

	today = truncateToDay(today)
	running := 0

	for i, d := range dates {
		d = truncateToDay(d)
		if i == 0 || !truncateToDay(dates[i-1]).AddDate(0, 0, 1).Equal(d) {
			running = 1
		} else {
			running++
		}
		if running > longest {
			longest = running
		}
		lastActive = d
	}

	// 最近活动早于昨天时不保留过期的连续值
	if lastActive.Equal(today) || lastActive.AddDate(0, 0, 1).Equal(today) {
		current = running
	} else {
		current = 0
	}

	return current, longest, lastActive
}

// Refresh 从历史重算并覆盖缓存行
func (s *StreakService) Refresh(userID uint) (*model.StreakRecord, error) {
	raw, err := s.SessionRepo.DistinctCompletionDates(userID)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(raw))
	for _, d := range raw {
		t, parseErr := time.ParseInLocation("2006-01-02", d, time.Local)
		if parseErr != nil {
			logger.Log.Warn("skipping unparsable completion date", zap.String("date", d), zap.Error(parseErr))
			continue
		}
		dates = append(dates, t)
	}

	current, longest, lastActive := ComputeStreaks(dates, time.Now())

	record := &model.StreakRecord{
		UserID:         userID,
		CurrentStreak:  current,
		LongestStreak:  longest,
		LastActiveDate: lastActive,
	}
	if err := s.StreakRepo.Upsert(record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetStreak 读路径同样走重算，避免缓存漂移
func (s *StreakService) GetStreak(userID uint) (*model.StreakRecord, error) {
	return s.Refresh(userID)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
