package service

import (
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartQuizCapsCount(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(t, db)

	for i := 0; i < 30; i++ {
		seedQuestion(t, db, "slices", "right", "wrong")
	}

	questions, err := svc.StartQuiz("", "", 100)
	require.NoError(t, err)
	assert.Len(t, questions, svc.Cfg.Quiz.MaxQuestionCount)

	questions, err = svc.StartQuiz("", "", 0)
	require.NoError(t, err)
	assert.Len(t, questions, svc.Cfg.Quiz.DefaultQuestionCount)
}

func TestStartQuizFiltersByTopic(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(t, db)

	seedQuestion(t, db, "slices", "right", "wrong")
	seedQuestion(t, db, "concurrency", "right", "wrong")

	questions, err := svc.StartQuiz("slices", "", 10)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "slices", questions[0].Topic)

	_, err = svc.StartQuiz("unknown-topic", "", 10)
	assert.ErrorIs(t, err, util.ErrNoQuestions)
}

func TestScoreSubmissionsIgnoresClientVerdict(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(t, db)

	q := seedQuestion(t, db, "slices", "right", "wrong")

	scored, err := svc.ScoreSubmissions([]AnswerSubmission{
		{QuestionID: q.ID, SelectedOption: "right", TimeTaken: 3},
		{QuestionID: q.ID, SelectedOption: "wrong", TimeTaken: 4},
		{QuestionID: q.ID, SelectedOption: "", TimeTaken: 0},
	})
	require.NoError(t, err)
	require.Len(t, scored, 3)

	assert.True(t, scored[0].IsCorrect)
	assert.False(t, scored[1].IsCorrect)
	// 空选项按未作答哨兵处理
	assert.Equal(t, UnansweredOption, scored[2].SelectedOption)
	assert.False(t, scored[2].IsCorrect)
}

func TestScoreSubmissionsUnknownQuestion(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(t, db)

	_, err := svc.ScoreSubmissions([]AnswerSubmission{{QuestionID: 999, SelectedOption: "x"}})
	assert.ErrorIs(t, err, util.ErrNoQuestions)
}

func TestRecordScoredCompletionPersistsAndFansOut(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(t, db)

	end := time.Now()
	answers := []ScoredAnswer{
		{QuestionID: 1, Topic: "slices", SelectedOption: "a", CorrectOption: "a", IsCorrect: true, TimeTaken: 2},
		{QuestionID: 2, Topic: "slices", SelectedOption: "b", CorrectOption: "c", IsCorrect: false, TimeTaken: 4},
		{QuestionID: 3, Topic: "concurrency", SelectedOption: "d", CorrectOption: "d", IsCorrect: true, TimeTaken: 6},
	}

	session, err := svc.RecordScoredCompletion(1, answers, end.Add(-time.Minute), end, "chat")
	require.NoError(t, err)

	assert.Equal(t, 3, session.TotalQuestions)
	assert.Equal(t, 2, session.CorrectOptions)
	assert.Equal(t, 66.67, session.Accuracy)
	assert.Equal(t, 60, session.Duration)
	assert.Equal(t, 4.0, session.AvgTimePerQuestion)
	assert.ElementsMatch(t, []string{"slices", "concurrency"}, []string(session.TopicsCovered))

	attempts, err := svc.AttemptRepo.FindBySession(session.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 3)

	// 主题统计按主题分桶折叠
	topics, err := svc.TopicService.ListByUser(1)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "concurrency", topics[0].Topic)
	assert.Equal(t, 1, topics[0].TotalAnswered)
	assert.Equal(t, "slices", topics[1].Topic)
	assert.Equal(t, 2, topics[1].TotalAnswered)
	assert.Equal(t, 1, topics[1].TotalCorrect)

	// 连续天数与用户汇总同步刷新
	var streak model.StreakRecord
	require.NoError(t, db.Where("user_id = ?", 1).First(&streak).Error)
	assert.Equal(t, 1, streak.CurrentStreak)

	var analysis model.UserAnalysis
	require.NoError(t, db.Where("user_id = ?", 1).First(&analysis).Error)
	assert.Equal(t, 1, analysis.TotalQuizzes)
	assert.Equal(t, 3, analysis.TotalQuestionsAnswered)
}

func TestRecordScoredCompletionSkipsReservedTopic(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(t, db)

	end := time.Now()
	answers := []ScoredAnswer{
		{QuestionID: 1, Topic: "general", SelectedOption: "a", CorrectOption: "a", IsCorrect: true, TimeTaken: 2},
		{QuestionID: 2, Topic: "", SelectedOption: "b", CorrectOption: "b", IsCorrect: true, TimeTaken: 2},
	}

	_, err := svc.RecordScoredCompletion(1, answers, end.Add(-time.Minute), end, "chat")
	require.NoError(t, err)

	topics, err := svc.TopicService.ListByUser(1)
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestRecordScoredCompletionValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(t, db)

	end := time.Now()
	_, err := svc.RecordScoredCompletion(1, nil, end.Add(-time.Minute), end, "web")
	assert.ErrorIs(t, err, util.ErrInvalidCompletion)

	answers := []ScoredAnswer{{QuestionID: 1, SelectedOption: "a", CorrectOption: "a", IsCorrect: true}}
	_, err = svc.RecordScoredCompletion(1, answers, end, end.Add(-time.Minute), "web")
	assert.ErrorIs(t, err, util.ErrInvalidCompletion)
}

func TestRecordAggregateCompletion(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(t, db)

	end := time.Now()
	session, err := svc.RecordAggregateCompletion(1, CompletionInput{
		TotalQuestions: 8,
		CorrectOptions: 6,
		Duration:       120,
		TopicsCovered:  []string{"slices"},
		StartTime:      end.Add(-2 * time.Minute),
		EndTime:        end,
	}, "web")
	require.NoError(t, err)

	assert.Equal(t, 75.0, session.Accuracy)

	// 无单题明细时不碰主题统计，但汇总照常刷新
	topics, err := svc.TopicService.ListByUser(1)
	require.NoError(t, err)
	assert.Empty(t, topics)

	var analysis model.UserAnalysis
	require.NoError(t, db.Where("user_id = ?", 1).First(&analysis).Error)
	assert.Equal(t, 1, analysis.TotalQuizzes)
	assert.Equal(t, 8, analysis.TotalQuestionsAnswered)
}

func TestRecordAggregateCompletionValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(t, db)

	_, err := svc.RecordAggregateCompletion(1, CompletionInput{TotalQuestions: 0}, "web")
	assert.ErrorIs(t, err, util.ErrInvalidCompletion)

	_, err = svc.RecordAggregateCompletion(1, CompletionInput{TotalQuestions: 5, CorrectOptions: 6}, "web")
	assert.ErrorIs(t, err, util.ErrInvalidCompletion)
}

func TestRecordAttemptRescoresKnownQuestion(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(t, db)

	q := seedQuestion(t, db, "slices", "right", "wrong")

	// 客户端声称答对，服务端按题库重判
	attempt, err := svc.RecordAttempt(1, q.ID, "", "wrong", true, 3)
	require.NoError(t, err)
	assert.False(t, attempt.IsCorrect)

	attempt, err = svc.RecordAttempt(1, q.ID, "", "right", false, 3)
	require.NoError(t, err)
	assert.True(t, attempt.IsCorrect)
}
