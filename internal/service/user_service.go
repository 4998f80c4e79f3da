package service

import (
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"

	"github.com/google/uuid"
)

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}

// IssueTelegramLinkCode 为用户签发一次性绑定码。重复调用覆盖旧码，
// 机器人侧消费后清空。
func (s *UserService) IssueTelegramLinkCode(userID uint) (string, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return "", util.ErrUserNotFound
	}

	code := uuid.New().String()
	user.TelegramLinkCode = code
	if err := s.UserRepo.Update(user); err != nil {
		return "", err
	}
	return code, nil
}

// BindTelegramChat 用绑定码把Telegram聊天绑到平台账号上
func (s *UserService) BindTelegramChat(code string, chatID int64) (*model.User, error) {
	user, err := s.UserRepo.FindByLinkCode(code)
	if err != nil {
		return nil, util.ErrLinkCodeInvalid
	}

	user.TelegramChatID = &chatID
	user.TelegramLinkCode = ""
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
