package service

import (
	"errors"
	"quizprep_backend/internal/config"
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/util"
	"quizprep_backend/pkg/logger"
	"quizprep_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// ChatNotifier 聊天端消息出口，由具体机器人实现
type ChatNotifier interface {
	AskQuestion(chatID int64, question model.Question, turn, total int, version uint64)
	SendSummary(chatID int64, session *model.QuizSession)
	SendFailure(chatID int64)
}

// AnswerFeedback 作答后立即展示的反馈
type AnswerFeedback struct {
	IsCorrect     bool
	Selected      string
	CorrectOption string
	Turn          int
	Total         int
	LastTurn      bool
}

// ChatQuizService 测验状态机的聊天端绑定：服务端按聊天持有会话，
// 逐题推送。作答反馈同步展示，下一题在固定揭示延迟后出现；
// 延迟动作携带调度时的会话版本号，旧局的延迟推进在新开局后是空操作。
type ChatQuizService struct {
	Store *ChatSessionStore
	Quiz  *QuizService
	Cfg   *config.Config

	notifier ChatNotifier
	schedule func(delay time.Duration, fn func())
}

func NewChatQuizService(store *ChatSessionStore, quiz *QuizService, cfg *config.Config) *ChatQuizService {
	return &ChatQuizService{
		Store: store,
		Quiz:  quiz,
		Cfg:   cfg,
		schedule: func(delay time.Duration, fn func()) {
			time.AfterFunc(delay, fn)
		},
	}
}

func (s *ChatQuizService) SetNotifier(n ChatNotifier) {
	s.notifier = n
}

// StartQuiz 为该聊天开启新一局，覆盖既有会话（不合并、不提示）
func (s *ChatQuizService) StartQuiz(chatID int64, userID uint, topic string) (first model.Question, total int, version uint64, err error) {
	questions, err := s.Quiz.StartQuiz(topic, "", s.Cfg.Quiz.DefaultQuestionCount)
	if err != nil {
		return model.Question{}, 0, 0, err
	}

	version, first, total = s.Store.Begin(chatID, userID, questions)
	return first, total, version, nil
}

// SubmitAnswer 处理一次作答回调。回调携带的(version, turn)用于拒绝
// 过期与重复回调：版本不符说明会话已被取代，turn不符或当前不在等待
// 作答状态说明是重复提交，均不改任何状态。
func (s *ChatQuizService) SubmitAnswer(chatID int64, version uint64, turn int, optionIndex int) (*AnswerFeedback, error) {
	var fb *AnswerFeedback

	err := s.Store.WithSession(chatID, func(sess *ChatQuizSession) error {
		if sess.Version != version {
			monitoring.StaleCallbackCounter.Inc()
			return util.ErrStaleCallback
		}
		if !sess.AwaitingAnswer || turn != sess.Index {
			return util.ErrDuplicateAnswer
		}

		q := sess.Questions[sess.Index]
		selected := UnansweredOption
		if optionIndex >= 0 && optionIndex < len(q.Options) {
			selected = q.Options[optionIndex]
		}
		isCorrect := ScoreAnswer(selected, q.CorrectOption)

		now := time.Now()
		sess.Answers = append(sess.Answers, ChatAnswer{
			QuestionID: q.ID,
			Topic:      q.Topic,
			Selected:   selected,
			Correct:    q.CorrectOption,
			IsCorrect:  isCorrect,
			TimeTaken:  now.Sub(sess.QuestionShownAt).Seconds(),
		})
		// 揭示延迟结束前禁止继续输入
		sess.AwaitingAnswer = false
		sess.LastActivity = now

		fb = &AnswerFeedback{
			IsCorrect:     isCorrect,
			Selected:      selected,
			CorrectOption: q.CorrectOption,
			Turn:          turn,
			Total:         len(sess.Questions),
			LastTurn:      sess.Index == len(sess.Questions)-1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	delay := time.Duration(s.Cfg.Quiz.RevealDelaySeconds) * time.Second
	s.schedule(delay, func() { s.Advance(chatID, version) })

	return fb, nil
}

// Advance 延迟推进：出下一题或结算本局。只在会话仍是调度时捕获的
// 那个版本时生效，否则为空操作。
func (s *ChatQuizService) Advance(chatID int64, version uint64) {
	var (
		next     *model.Question
		turn     int
		total    int
		finished []ChatAnswer
		userID   uint
		start    time.Time
	)

	err := s.Store.WithSession(chatID, func(sess *ChatQuizSession) error {
		if sess.Version != version {
			monitoring.StaleCallbackCounter.Inc()
			return util.ErrStaleCallback
		}
		if sess.AwaitingAnswer {
			// 当前题还未作答，没有可推进的状态
			return util.ErrDuplicateAnswer
		}

		if sess.Index+1 < len(sess.Questions) {
			sess.Index++
			sess.AwaitingAnswer = true
			now := time.Now()
			sess.QuestionShownAt = now
			sess.LastActivity = now

			q := sess.Questions[sess.Index]
			next = &q
			turn = sess.Index
			total = len(sess.Questions)
			return nil
		}

		finished = sess.Answers
		userID = sess.UserID
		start = sess.StartTime
		return nil
	})
	if err != nil {
		if errors.Is(err, util.ErrSessionExpired) || errors.Is(err, util.ErrStaleCallback) {
			// 会话已结束或被新局取代，延迟推进按约定丢弃
			return
		}
		return
	}

	if next != nil {
		if s.notifier != nil {
			s.notifier.AskQuestion(chatID, *next, turn, total, version)
		}
		return
	}

	// 结算：先摘除会话（仍校验版本），再持久化
	if !s.Store.DeleteIfVersion(chatID, version) {
		monitoring.StaleCallbackCounter.Inc()
		return
	}

	answers := make([]ScoredAnswer, 0, len(finished))
	for _, a := range finished {
		answers = append(answers, ScoredAnswer{
			QuestionID:     a.QuestionID,
			Topic:          a.Topic,
			SelectedOption: a.Selected,
			CorrectOption:  a.Correct,
			IsCorrect:      a.IsCorrect,
			TimeTaken:      a.TimeTaken,
		})
	}

	session, err := s.Quiz.RecordScoredCompletion(userID, answers, start, time.Now(), "chat")
	if err != nil {
		logger.Log.Error("failed to persist chat quiz completion",
			zap.Int64("chatId", chatID), zap.Uint("userId", userID), zap.Error(err))
		if s.notifier != nil {
			s.notifier.SendFailure(chatID)
		}
		return
	}

	if s.notifier != nil {
		s.notifier.SendSummary(chatID, session)
	}
}
