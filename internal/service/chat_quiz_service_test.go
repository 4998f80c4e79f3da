package service

import (
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeNotifier 记录聊天出口收到的所有调用
type fakeNotifier struct {
	asked     []model.Question
	summaries []*model.QuizSession
	failures  int
}

func (f *fakeNotifier) AskQuestion(chatID int64, q model.Question, turn, total int, version uint64) {
	f.asked = append(f.asked, q)
}

func (f *fakeNotifier) SendSummary(chatID int64, session *model.QuizSession) {
	f.summaries = append(f.summaries, session)
}

func (f *fakeNotifier) SendFailure(chatID int64) {
	f.failures++
}

type chatFixture struct {
	svc      *ChatQuizService
	notifier *fakeNotifier
	db       *gorm.DB
	pending  []func()
}

// runPending 手动执行所有已调度的延迟动作，代替真实的定时器
func (f *chatFixture) runPending() {
	fns := f.pending
	f.pending = nil
	for _, fn := range fns {
		fn()
	}
}

func newChatFixture(t *testing.T, questionCount int) *chatFixture {
	t.Helper()

	db := newTestDB(t)
	for i := 0; i < questionCount; i++ {
		seedQuestion(t, db, "slices", "right", "wrong")
	}

	quiz := newQuizService(t, db)
	store := NewChatSessionStore(30*time.Minute, 5*time.Minute)
	svc := NewChatQuizService(store, quiz, quiz.Cfg)

	f := &chatFixture{svc: svc, notifier: &fakeNotifier{}, db: db}
	svc.SetNotifier(f.notifier)
	svc.schedule = func(delay time.Duration, fn func()) {
		f.pending = append(f.pending, fn)
	}
	return f
}

func (f *chatFixture) answerCorrect(t *testing.T, chatID int64, version uint64, turn int) {
	t.Helper()
	fb, err := f.svc.SubmitAnswer(chatID, version, turn, 0)
	require.NoError(t, err)
	assert.True(t, fb.IsCorrect)
}

func TestChatQuizFullRun(t *testing.T) {
	f := newChatFixture(t, 2)

	first, total, version, err := f.svc.StartQuiz(100, 1, "slices")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.NotEmpty(t, first.Text)

	// 第一题：作答后延迟推进推出第二题
	f.answerCorrect(t, 100, version, 0)
	f.runPending()
	require.Len(t, f.notifier.asked, 1)

	// 第二题：作答后延迟推进结算
	fb, err := f.svc.SubmitAnswer(100, version, 1, 1)
	require.NoError(t, err)
	assert.False(t, fb.IsCorrect)
	assert.True(t, fb.LastTurn)
	f.runPending()

	require.Len(t, f.notifier.summaries, 1)
	summary := f.notifier.summaries[0]
	assert.Equal(t, 2, summary.TotalQuestions)
	assert.Equal(t, 1, summary.CorrectOptions)
	assert.Equal(t, 50.0, summary.Accuracy)

	// 会话已销毁，完成记录已落库
	assert.Zero(t, f.svc.Store.Len())
	var count int64
	f.db.Model(&model.QuizSession{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestChatQuizStaleDeferredAdvanceIsNoop(t *testing.T) {
	f := newChatFixture(t, 2)

	_, _, oldVersion, err := f.svc.StartQuiz(100, 1, "")
	require.NoError(t, err)
	f.answerCorrect(t, 100, oldVersion, 0)

	// 延迟推进触发前用户重新开局，旧版本的推进必须变成空操作
	_, _, newVersion, err := f.svc.StartQuiz(100, 1, "")
	require.NoError(t, err)
	assert.Greater(t, newVersion, oldVersion)

	f.runPending()
	assert.Empty(t, f.notifier.asked)
	assert.Empty(t, f.notifier.summaries)

	// 新会话不受影响，仍停在第一题等待作答
	f.answerCorrect(t, 100, newVersion, 0)
}

func TestChatQuizRejectsStaleCallback(t *testing.T) {
	f := newChatFixture(t, 2)

	_, _, oldVersion, err := f.svc.StartQuiz(100, 1, "")
	require.NoError(t, err)
	_, _, _, err = f.svc.StartQuiz(100, 1, "")
	require.NoError(t, err)

	// 旧消息上的按钮点击
	_, err = f.svc.SubmitAnswer(100, oldVersion, 0, 0)
	assert.ErrorIs(t, err, util.ErrStaleCallback)
}

func TestChatQuizRejectsDuplicateAnswer(t *testing.T) {
	f := newChatFixture(t, 2)

	_, _, version, err := f.svc.StartQuiz(100, 1, "")
	require.NoError(t, err)

	f.answerCorrect(t, 100, version, 0)

	// 同一题的第二次点击
	_, err = f.svc.SubmitAnswer(100, version, 0, 1)
	assert.ErrorIs(t, err, util.ErrDuplicateAnswer)

	// 不属于当前题序的回调同样拒绝
	_, err = f.svc.SubmitAnswer(100, version, 1, 0)
	assert.ErrorIs(t, err, util.ErrDuplicateAnswer)
}

func TestChatQuizExpiredSession(t *testing.T) {
	f := newChatFixture(t, 1)

	_, err := f.svc.SubmitAnswer(100, 1, 0, 0)
	assert.ErrorIs(t, err, util.ErrSessionExpired)
}

func TestChatQuizOutOfRangeOptionScoresWrong(t *testing.T) {
	f := newChatFixture(t, 1)

	_, _, version, err := f.svc.StartQuiz(100, 1, "")
	require.NoError(t, err)

	fb, err := f.svc.SubmitAnswer(100, version, 0, 99)
	require.NoError(t, err)
	assert.False(t, fb.IsCorrect)
	assert.Equal(t, UnansweredOption, fb.Selected)
}

func TestChatSessionStoreReapsIdleSessions(t *testing.T) {
	store := NewChatSessionStore(30*time.Minute, 5*time.Minute)

	store.Begin(100, 1, []model.Question{{Text: "q"}})
	store.Begin(200, 2, []model.Question{{Text: "q"}})
	require.Equal(t, 2, store.Len())

	// 半小时内无动作的会话被回收
	reaped := store.reap(time.Now().Add(31 * time.Minute))
	assert.Equal(t, 2, reaped)
	assert.Zero(t, store.Len())
}

func TestChatSessionStoreDeleteIfVersion(t *testing.T) {
	store := NewChatSessionStore(30*time.Minute, 5*time.Minute)

	v1, _, _ := store.Begin(100, 1, []model.Question{{Text: "q"}})
	v2, _, _ := store.Begin(100, 1, []model.Question{{Text: "q"}})
	require.Greater(t, v2, v1)

	assert.False(t, store.DeleteIfVersion(100, v1))
	require.Equal(t, 1, store.Len())
	assert.True(t, store.DeleteIfVersion(100, v2))
	assert.Zero(t, store.Len())
}
