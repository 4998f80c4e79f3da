package service

import (
	"errors"
	"fmt"
	"quizprep_backend/internal/config"
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"
	"quizprep_backend/pkg/logger"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// QuizBot Telegram机器人，测验流程的聊天端接入。
// 命令开局/查统计，作答通过内联键盘回调完成；回调数据携带
// (版本,题序)，过期与重复回调在ChatQuizService被拒绝。
type QuizBot struct {
	api      *tgbotapi.BotAPI
	chatQuiz *ChatQuizService
	userSvc  *UserService
	userRepo *repository.UserRepository
	streak   *StreakService
	analysis *UserAnalysisService
	cfg      *config.Config
	stop     chan struct{}
}

func NewQuizBot(
	cfg *config.Config,
	chatQuiz *ChatQuizService,
	userSvc *UserService,
	userRepo *repository.UserRepository,
	streak *StreakService,
	analysis *UserAnalysisService,
) (*QuizBot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	api.Debug = cfg.Telegram.Debug

	bot := &QuizBot{
		api:      api,
		chatQuiz: chatQuiz,
		userSvc:  userSvc,
		userRepo: userRepo,
		streak:   streak,
		analysis: analysis,
		cfg:      cfg,
		stop:     make(chan struct{}),
	}
	chatQuiz.SetNotifier(bot)
	return bot, nil
}

func (b *QuizBot) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	logger.Log.Info("Telegram bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(update)
		case <-b.stop:
			return
		}
	}
}

func (b *QuizBot) Stop() {
	close(b.stop)
	b.api.StopReceivingUpdates()
}

func (b *QuizBot) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}
	if update.Message != nil && update.Message.IsCommand() {
		b.handleCommand(update.Message)
	}
}

func (b *QuizBot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.handleStart(chatID, strings.TrimSpace(msg.CommandArguments()))
	case "quiz":
		b.startQuiz(chatID, strings.TrimSpace(msg.CommandArguments()))
	case "stats":
		b.sendStats(chatID)
	case "help":
		b.send(chatID, "可用命令：\n/quiz [主题] 开始一局测验\n/stats 查看统计\n/help 显示帮助")
	default:
		b.send(chatID, "未知命令，输入 /help 查看用法")
	}
}

// handleStart 无参数时打招呼；带链接码时绑定平台账号
func (b *QuizBot) handleStart(chatID int64, linkCode string) {
	if linkCode == "" {
		if _, err := b.userRepo.FindByTelegramChatID(chatID); err == nil {
			b.send(chatID, "账号已绑定，输入 /quiz 开始练习")
			return
		}
		b.send(chatID, "欢迎！请先在网页端生成绑定码，然后发送 /start <绑定码> 完成绑定")
		return
	}

	user, err := b.userSvc.BindTelegramChat(linkCode, chatID)
	if err != nil {
		if errors.Is(err, util.ErrLinkCodeInvalid) {
			b.send(chatID, "绑定码无效或已过期，请在网页端重新生成")
			return
		}
		logger.Log.Error("failed to bind telegram chat", zap.Int64("chatId", chatID), zap.Error(err))
		b.send(chatID, "绑定失败，请稍后重试")
		return
	}
	b.send(chatID, fmt.Sprintf("绑定成功，%s！输入 /quiz 开始练习", user.Name))
}

func (b *QuizBot) startQuiz(chatID int64, topic string) {
	user, err := b.userRepo.FindByTelegramChatID(chatID)
	if err != nil {
		b.send(chatID, "尚未绑定账号，请先发送 /start <绑定码>")
		return
	}

	first, total, version, err := b.chatQuiz.StartQuiz(chatID, user.ID, topic)
	if err != nil {
		if errors.Is(err, util.ErrNoQuestions) {
			b.send(chatID, "该主题下暂时没有题目，换个主题试试吧")
			return
		}
		logger.Log.Error("failed to start chat quiz", zap.Int64("chatId", chatID), zap.Error(err))
		b.send(chatID, "抱歉，暂时无法开始测验，请稍后重试")
		return
	}

	b.AskQuestion(chatID, first, 0, total, version)
}

func (b *QuizBot) handleCallback(cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	data := cq.Data

	switch {
	case strings.HasPrefix(data, "ans:"):
		b.handleAnswerCallback(cq)
	case data == "quiz:new":
		b.ack(cq, "")
		b.startQuiz(chatID, "")
	case data == "quiz:stats":
		b.ack(cq, "")
		b.sendStats(chatID)
	default:
		b.ack(cq, "")
	}
}

// handleAnswerCallback 回调数据格式 ans:<version>:<turn>:<optionIndex>
func (b *QuizBot) handleAnswerCallback(cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID

	parts := strings.Split(cq.Data, ":")
	if len(parts) != 4 {
		b.ack(cq, "")
		return
	}
	version, err1 := strconv.ParseUint(parts[1], 10, 64)
	turn, err2 := strconv.Atoi(parts[2])
	optionIndex, err3 := strconv.Atoi(parts[3])
	if err1 != nil || err2 != nil || err3 != nil {
		b.ack(cq, "")
		return
	}

	fb, err := b.chatQuiz.SubmitAnswer(chatID, version, turn, optionIndex)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionExpired):
			b.ack(cq, "")
			b.send(chatID, "本局已结束或已过期，输入 /quiz 重新开始")
		case errors.Is(err, util.ErrStaleCallback), errors.Is(err, util.ErrDuplicateAnswer):
			// 过期或重复的按钮点击，静默吞掉
			b.ack(cq, "")
		default:
			b.ack(cq, "")
			b.send(chatID, "抱歉，处理出错了，请稍后重试")
		}
		return
	}

	// 同步反馈，下一题由揭示延迟后的推进负责
	if fb.IsCorrect {
		b.ack(cq, "回答正确！")
		b.send(chatID, fmt.Sprintf("✅ 回答正确！（第%d/%d题）", fb.Turn+1, fb.Total))
	} else {
		b.ack(cq, "回答错误")
		b.send(chatID, fmt.Sprintf("❌ 回答错误，正确答案：%s（第%d/%d题）", fb.CorrectOption, fb.Turn+1, fb.Total))
	}
}

func (b *QuizBot) sendStats(chatID int64) {
	user, err := b.userRepo.FindByTelegramChatID(chatID)
	if err != nil {
		b.send(chatID, "尚未绑定账号，请先发送 /start <绑定码>")
		return
	}

	record, err := b.streak.GetStreak(user.ID)
	if err != nil {
		logger.Log.Error("failed to load streak for chat", zap.Uint("userId", user.ID), zap.Error(err))
		b.send(chatID, "抱歉，统计暂时不可用")
		return
	}
	rollup, err := b.analysis.GetAnalysis(user.ID, false)
	if err != nil {
		logger.Log.Error("failed to load analysis for chat", zap.Uint("userId", user.ID), zap.Error(err))
		b.send(chatID, "抱歉，统计暂时不可用")
		return
	}

	b.send(chatID, fmt.Sprintf(
		"📊 练习统计\n共完成测验：%d 次\n累计答题：%d 题，正确率 %.2f%%\n当前连续：%d 天，最长连续：%d 天",
		rollup.TotalQuizzes,
		rollup.TotalQuestionsAnswered,
		rollup.Accuracy,
		record.CurrentStreak,
		record.LongestStreak,
	))
}

// AskQuestion 实现ChatNotifier：推送一道题及其选项键盘
func (b *QuizBot) AskQuestion(chatID int64, question model.Question, turn, total int, version uint64) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(question.Options))
	for i, opt := range question.Options {
		data := fmt.Sprintf("ans:%d:%d:%d", version, turn, i)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt, data),
		))
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("第%d/%d题：\n%s", turn+1, total, question.Text))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		logger.Log.Error("failed to send question", zap.Int64("chatId", chatID), zap.Error(err))
	}
}

// SendSummary 实现ChatNotifier：本局结算
func (b *QuizBot) SendSummary(chatID int64, session *model.QuizSession) {
	text := fmt.Sprintf(
		"🎉 本局结束！\n答对 %d/%d 题，正确率 %.2f%%\n用时 %d 秒",
		session.CorrectOptions,
		session.TotalQuestions,
		session.Accuracy,
		session.Duration,
	)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("再来一局", "quiz:new"),
			tgbotapi.NewInlineKeyboardButtonData("查看统计", "quiz:stats"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		logger.Log.Error("failed to send summary", zap.Int64("chatId", chatID), zap.Error(err))
	}
}

// SendFailure 实现ChatNotifier：持久化失败时的兜底提示，不做自动重试
func (b *QuizBot) SendFailure(chatID int64) {
	b.send(chatID, "抱歉，本局结果保存失败了，请重新开始一局")
}

func (b *QuizBot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Log.Error("failed to send message", zap.Int64("chatId", chatID), zap.Error(err))
	}
}

func (b *QuizBot) ack(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
		logger.Log.Warn("failed to answer callback", zap.Error(err))
	}
}
