package service

import (
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalysisFixture(t *testing.T) (*UserAnalysisService, *repository.QuizSessionRepository, *repository.QuestionAttemptRepository) {
	t.Helper()
	db := newTestDB(t)
	sessionRepo := repository.NewQuizSessionRepository(db)
	attemptRepo := repository.NewQuestionAttemptRepository(db)
	svc := NewUserAnalysisService(sessionRepo, attemptRepo, repository.NewUserAnalysisRepository(db), nil)
	return svc, sessionRepo, attemptRepo
}

func TestUserAnalysisRecomputeFromSource(t *testing.T) {
	svc, sessionRepo, attemptRepo := newAnalysisFixture(t)

	end := time.Now()
	require.NoError(t, sessionRepo.Create(&model.QuizSession{
		UserID: 1, TotalQuestions: 10, CorrectOptions: 9, Accuracy: 90,
		StartTime: end.Add(-2 * time.Hour), EndTime: end.Add(-time.Hour),
	}))
	require.NoError(t, sessionRepo.Create(&model.QuizSession{
		UserID: 1, TotalQuestions: 2, CorrectOptions: 0, Accuracy: 0,
		StartTime: end.Add(-5 * time.Minute), EndTime: end,
	}))
	require.NoError(t, attemptRepo.CreateBatch([]model.QuestionAttempt{
		{UserID: 1, QuestionID: 1, SelectedOption: "a", IsCorrect: true, TimeTaken: 2.5, AttemptedAt: end},
		{UserID: 1, QuestionID: 2, SelectedOption: "b", IsCorrect: false, TimeTaken: 11.0, AttemptedAt: end},
	}))

	row, err := svc.Recompute(1)
	require.NoError(t, err)

	assert.Equal(t, 2, row.TotalQuizzes)
	assert.Equal(t, 12, row.TotalQuestionsAnswered)
	assert.Equal(t, 9, row.TotalCorrectOptions)
	// 按题数加权：9/12，而不是会话正确率的平均值45
	assert.Equal(t, 75.0, row.Accuracy)
	assert.Equal(t, 2.5, row.FastestResponse)
	assert.Equal(t, 11.0, row.SlowestResponse)
	assert.WithinDuration(t, end, row.LastActive, time.Second)
}

func TestUserAnalysisRefreshOverwritesStaleCache(t *testing.T) {
	svc, sessionRepo, _ := newAnalysisFixture(t)

	// 预置一条错误的缓存行
	require.NoError(t, svc.AnalysisRepo.Upsert(&model.UserAnalysis{
		UserID: 1, TotalQuizzes: 42, TotalQuestionsAnswered: 420, Accuracy: 1,
	}))

	end := time.Now()
	require.NoError(t, sessionRepo.Create(&model.QuizSession{
		UserID: 1, TotalQuestions: 4, CorrectOptions: 2, Accuracy: 50,
		StartTime: end.Add(-time.Minute), EndTime: end,
	}))

	row, err := svc.Refresh(1)
	require.NoError(t, err)
	assert.Equal(t, 1, row.TotalQuizzes)
	assert.Equal(t, 4, row.TotalQuestionsAnswered)
	assert.Equal(t, 50.0, row.Accuracy)

	stored, err := svc.AnalysisRepo.FindByUser(1)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalQuizzes)
	assert.Equal(t, 4, stored.TotalQuestionsAnswered)
}

func TestUserAnalysisEmptyHistory(t *testing.T) {
	svc, _, _ := newAnalysisFixture(t)

	row, err := svc.GetAnalysis(1, false)
	require.NoError(t, err)
	assert.Zero(t, row.TotalQuizzes)
	assert.Zero(t, row.TotalQuestionsAnswered)
	assert.Zero(t, row.Accuracy)
}
