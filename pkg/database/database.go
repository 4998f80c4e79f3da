package database

import (
	"fmt"
	"log"
	"quizprep_backend/internal/config"
	"quizprep_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dbCfg := &cfg.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.DBName,
		dbCfg.Charset,
		dbCfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式默认不自动迁移，需显式传 --migrate
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
		seedQuestions(db)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.QuizSession{},
		&model.QuestionAttempt{},
		&model.TopicAnalysis{},
		&model.UserAnalysis{},
		&model.StreakRecord{},
	)
}

// seedQuestions 题库为空时插入少量示例题目，保证测验流程开箱可用
func seedQuestions(db *gorm.DB) {
	var count int64
	db.Model(&model.Question{}).Count(&count)
	if count > 0 {
		return
	}

	defaults := []model.Question{
		{
			Text:          "切片在append超过容量时会发生什么？",
			Options:       model.StringList{"原地扩容", "分配新的底层数组", "编译错误", "运行时panic"},
			CorrectOption: "分配新的底层数组",
			Topic:         "slices",
			Difficulty:    "easy",
			Active:        true,
		},
		{
			Text:          "map的读写在没有同步的情况下并发执行会怎样？",
			Options:       model.StringList{"正常工作", "数据竞争", "自动加锁", "返回零值"},
			CorrectOption: "数据竞争",
			Topic:         "concurrency",
			Difficulty:    "medium",
			Active:        true,
		},
		{
			Text:          "哪个语句会从已关闭的channel接收到零值？",
			Options:       model.StringList{"v := <-ch", "close(ch)", "ch <- v", "len(ch)"},
			CorrectOption: "v := <-ch",
			Topic:         "concurrency",
			Difficulty:    "medium",
			Active:        true,
		},
		{
			Text:          "接口值什么时候等于nil？",
			Options:       model.StringList{"动态类型和动态值都为nil", "动态值为nil即可", "永远不等于nil", "只要未初始化"},
			CorrectOption: "动态类型和动态值都为nil",
			Topic:         "interfaces",
			Difficulty:    "hard",
			Active:        true,
		},
	}
	for _, q := range defaults {
		db.Create(&q)
	}
}
