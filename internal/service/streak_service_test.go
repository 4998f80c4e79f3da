package service

import (
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestComputeStreaksEmpty(t *testing.T) {
	current, longest, lastActive := ComputeStreaks(nil, day(2025, 6, 13))
	assert.Equal(t, 0, current)
	assert.Equal(t, 0, longest)
	assert.True(t, lastActive.IsZero())
}

func TestComputeStreaksTodayOnly(t *testing.T) {
	today := day(2025, 6, 13)
	current, longest, lastActive := ComputeStreaks([]time.Time{today}, today)
	assert.Equal(t, 1, current)
	assert.Equal(t, 1, longest)
	assert.Equal(t, today, lastActive)
}

func TestComputeStreaksGapResetsRun(t *testing.T) {
	// 周一到周三连续，周四空档，周五（今天）练习
	dates := []time.Time{
		day(2025, 6, 9),
		day(2025, 6, 10),
		day(2025, 6, 11),
		day(2025, 6, 13),
	}
	current, longest, _ := ComputeStreaks(dates, day(2025, 6, 13))
	assert.Equal(t, 1, current)
	assert.Equal(t, 3, longest)
}

func TestComputeStreaksYesterdayKeepsCurrent(t *testing.T) {
	dates := []time.Time{
		day(2025, 6, 10),
		day(2025, 6, 11),
		day(2025, 6, 12),
	}
	current, longest, _ := ComputeStreaks(dates, day(2025, 6, 13))
	assert.Equal(t, 3, current)
	assert.Equal(t, 3, longest)
}

func TestComputeStreaksStaleActivityZeroesCurrent(t *testing.T) {
	// 最近一次活动在两天前，current归零但longest保留
	dates := []time.Time{
		day(2025, 6, 9),
		day(2025, 6, 10),
		day(2025, 6, 11),
	}
	current, longest, lastActive := ComputeStreaks(dates, day(2025, 6, 13))
	assert.Equal(t, 0, current)
	assert.Equal(t, 3, longest)
	assert.Equal(t, day(2025, 6, 11), lastActive)
}

func TestComputeStreaksMonthBoundary(t *testing.T) {
	dates := []time.Time{
		day(2025, 5, 31),
		day(2025, 6, 1),
	}
	current, longest, _ := ComputeStreaks(dates, day(2025, 6, 1))
	assert.Equal(t, 2, current)
	assert.Equal(t, 2, longest)
}

func seedSession(t *testing.T, repo *repository.QuizSessionRepository, userID uint, end time.Time) {
	t.Helper()
	require.NoError(t, repo.Create(&model.QuizSession{
		UserID:         userID,
		TotalQuestions: 4,
		CorrectOptions: 3,
		Accuracy:       75,
		StartTime:      end.Add(-5 * time.Minute),
		EndTime:        end,
	}))
}

func TestStreakRefreshFromHistory(t *testing.T) {
	db := newTestDB(t)
	sessionRepo := repository.NewQuizSessionRepository(db)
	svc := NewStreakService(sessionRepo, repository.NewStreakRepository(db))

	now := time.Now()
	// 昨天两场（同一天只计一次）+ 今天一场
	seedSession(t, sessionRepo, 1, now.AddDate(0, 0, -1))
	seedSession(t, sessionRepo, 1, now.AddDate(0, 0, -1).Add(time.Hour))
	seedSession(t, sessionRepo, 1, now)

	record, err := svc.Refresh(1)
	require.NoError(t, err)
	assert.Equal(t, 2, record.CurrentStreak)
	assert.Equal(t, 2, record.LongestStreak)
}

func TestStreakRefreshOverwritesCachedRow(t *testing.T) {
	db := newTestDB(t)
	sessionRepo := repository.NewQuizSessionRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	svc := NewStreakService(sessionRepo, streakRepo)

	// 预置一条与历史不一致的缓存行，重算后必须被覆盖
	require.NoError(t, streakRepo.Upsert(&model.StreakRecord{
		UserID:        1,
		CurrentStreak: 99,
		LongestStreak: 99,
	}))

	seedSession(t, sessionRepo, 1, time.Now())

	record, err := svc.GetStreak(1)
	require.NoError(t, err)
	assert.Equal(t, 1, record.CurrentStreak)
	assert.Equal(t, 1, record.LongestStreak)

	var stored model.StreakRecord
	require.NoError(t, db.Where("user_id = ?", 1).First(&stored).Error)
	assert.Equal(t, 1, stored.CurrentStreak)
	assert.Equal(t, 1, stored.LongestStreak)
}
