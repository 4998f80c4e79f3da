package service

import (
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/util"
	"quizprep_backend/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ChatAnswer 聊天端单题作答记录（仅内存）
type ChatAnswer struct {
	QuestionID uint
	Topic      string
	Selected   string
	Correct    string
	IsCorrect  bool
	TimeTaken  float64 // 秒
}

// ChatQuizSession 某个聊天当前进行中的测验。进程内状态，不落库；
// 完成或被新开局覆盖时销毁，长期闲置由清理任务回收。
type ChatQuizSession struct {
	ChatID          int64
	UserID          uint
	Version         uint64 // 单调递增的代际标记，延迟动作据此识别过期
	Questions       []model.Question
	Index           int
	Answers         []ChatAnswer
	AwaitingAnswer  bool
	StartTime       time.Time
	QuestionShownAt time.Time
	LastActivity    time.Time
}

// ChatSessionStore 进程级 聊天ID→活跃会话 映射。单实例状态：
// 多实例部署需要先把它外置，否则聊天流量会被拆散。
type ChatSessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*ChatQuizSession
	version  uint64

	idleTTL        time.Duration
	reaperInterval time.Duration
	stop           chan struct{}
	stopOnce       sync.Once
}

func NewChatSessionStore(idleTTL, reaperInterval time.Duration) *ChatSessionStore {
	return &ChatSessionStore{
		sessions:       make(map[int64]*ChatQuizSession),
		idleTTL:        idleTTL,
		reaperInterval: reaperInterval,
		stop:           make(chan struct{}),
	}
}

// Begin 为该聊天开启新会话，无条件覆盖旧会话并分配新版本号
func (st *ChatSessionStore) Begin(chatID int64, userID uint, questions []model.Question) (version uint64, first model.Question, total int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.version++
	now := time.Now()
	st.sessions[chatID] = &ChatQuizSession{
		ChatID:          chatID,
		UserID:          userID,
		Version:         st.version,
		Questions:       questions,
		Index:           0,
		AwaitingAnswer:  true,
		StartTime:       now,
		QuestionShownAt: now,
		LastActivity:    now,
	}
	return st.version, questions[0], len(questions)
}

// WithSession 在持锁状态下操作会话；会话不存在时返回ErrSessionExpired
func (st *ChatSessionStore) WithSession(chatID int64, fn func(*ChatQuizSession) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[chatID]
	if !ok {
		return util.ErrSessionExpired
	}
	return fn(sess)
}

// DeleteIfVersion 仅当会话仍是给定版本时摘除，返回是否摘除成功
func (st *ChatSessionStore) DeleteIfVersion(chatID int64, version uint64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[chatID]
	if !ok || sess.Version != version {
		return false
	}
	delete(st.sessions, chatID)
	return true
}

func (st *ChatSessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Run 周期清理闲置会话，直到Stop被调用
func (st *ChatSessionStore) Run() {
	ticker := time.NewTicker(st.reaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := st.reap(time.Now()); n > 0 {
				logger.Log.Info("reaped idle chat quiz sessions", zap.Int("count", n))
			}
		case <-st.stop:
			return
		}
	}
}

func (st *ChatSessionStore) Stop() {
	st.stopOnce.Do(func() {
		close(st.stop)
	})
}

func (st *ChatSessionStore) reap(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	reaped := 0
	for chatID, sess := range st.sessions {
		if now.Sub(sess.LastActivity) >= st.idleTTL {
			delete(st.sessions, chatID)
			reaped++
		}
	}
	return reaped
}
