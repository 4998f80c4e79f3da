package service

import (
	"fmt"
	"quizprep_backend/internal/config"
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/pkg/logger"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// newTestDB 每个测试一个独立的内存库，避免用例间互相污染
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.QuizSession{},
		&model.QuestionAttempt{},
		&model.TopicAnalysis{},
		&model.UserAnalysis{},
		&model.StreakRecord{},
	))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Quiz: config.QuizConfig{
			DefaultQuestionCount: 5,
			MaxQuestionCount:     20,
			RevealDelaySeconds:   3,
			SessionIdleTTL:       30 * time.Minute,
			ReaperInterval:       5 * time.Minute,
		},
	}
}

func seedQuestion(t *testing.T, db *gorm.DB, topic, correct string, wrong ...string) model.Question {
	t.Helper()

	q := model.Question{
		Text:          fmt.Sprintf("%s question", topic),
		Options:       append(model.StringList{correct}, wrong...),
		CorrectOption: correct,
		Topic:         topic,
		Difficulty:    "medium",
		Active:        true,
	}
	require.NoError(t, db.Create(&q).Error)
	return q
}

// newQuizService 组装一套走内存库的完整测验服务
func newQuizService(t *testing.T, db *gorm.DB) *QuizService {
	t.Helper()

	sessionRepo := repository.NewQuizSessionRepository(db)
	attemptRepo := repository.NewQuestionAttemptRepository(db)

	streak := NewStreakService(sessionRepo, repository.NewStreakRepository(db))
	topic := NewTopicAnalysisService(repository.NewTopicAnalysisRepository(db))
	analysis := NewUserAnalysisService(sessionRepo, attemptRepo, repository.NewUserAnalysisRepository(db), nil)

	return NewQuizService(
		repository.NewQuestionRepository(db),
		sessionRepo,
		attemptRepo,
		streak,
		topic,
		analysis,
		newTestConfig(),
	)
}
