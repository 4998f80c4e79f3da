package controller

import (
	"errors"
	"quizprep_backend/internal/service"
	"quizprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// GetProfile godoc
// @Summary 查看当前用户信息
// @Tags 用户
// @Produce json
// @Success 200 {object} util.Response{data=model.User}
// @Security BearerAuth
// @Router /api/user/profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	user, err := c.UserService.GetProfile(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, user)
}

// IssueTelegramLink godoc
// @Summary 生成Telegram绑定码
// @Description 生成一次性绑定码，在机器人侧发送 /start <绑定码> 完成绑定
// @Tags 用户
// @Produce json
// @Success 200 {object} util.Response{data=object}
// @Security BearerAuth
// @Router /api/user/telegram/link [post]
func (c *UserController) IssueTelegramLink(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	code, err := c.UserService.IssueTelegramLinkCode(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"linkCode": code})
}
