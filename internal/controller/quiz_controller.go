package controller

import (
	"errors"
	"quizprep_backend/internal/service"
	"quizprep_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// GetQuestions godoc
// @Summary 获取一组测验题目
// @Description 按主题/难度筛选并随机选题，题目顺序即作答顺序；正确答案不下发
// @Tags 测验
// @Produce json
// @Param topic query string false "主题"
// @Param difficulty query string false "难度 beginner|intermediate|advanced"
// @Param count query int false "题目数量"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Failure 404 {object} util.Response "无符合条件的题目"
// @Security BearerAuth
// @Router /api/quiz/questions [get]
func (c *QuizController) GetQuestions(ctx *gin.Context) {
	topic := ctx.Query("topic")
	difficulty := ctx.Query("difficulty")
	count, _ := strconv.Atoi(ctx.DefaultQuery("count", "0"))

	questions, err := c.QuizService.StartQuiz(topic, difficulty, count)
	if err != nil {
		if errors.Is(err, util.ErrNoQuestions) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, questions)
}

// CompleteQuiz godoc
// @Summary 提交一次完成的测验
// @Description 整卷提交。带单题明细时服务端重新判分并更新主题统计；
// @Description 仅有汇总数字时落库会话并刷新连续天数与用户汇总
// @Tags 测验
// @Accept json
// @Produce json
// @Param body body service.CompletionInput true "完成记录"
// @Success 201 {object} util.Response{data=model.QuizSession}
// @Failure 400 {object} util.Response "完成记录非法"
// @Security BearerAuth
// @Router /api/quiz/complete [post]
func (c *QuizController) CompleteQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var input service.CompletionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if len(input.Answers) > 0 {
		scored, err := c.QuizService.ScoreSubmissions(input.Answers)
		if err != nil {
			if errors.Is(err, util.ErrNoQuestions) {
				util.BadRequest(ctx, "提交中包含未知题目")
				return
			}
			util.LogInternalError(ctx, err)
			return
		}

		session, err := c.QuizService.RecordScoredCompletion(claims.UserID, scored, input.StartTime, input.EndTime, "web")
		if err != nil {
			if errors.Is(err, util.ErrInvalidCompletion) {
				util.BadRequest(ctx, err.Error())
				return
			}
			util.LogInternalError(ctx, err)
			return
		}
		util.Created(ctx, session)
		return
	}

	session, err := c.QuizService.RecordAggregateCompletion(claims.UserID, input, "web")
	if err != nil {
		if errors.Is(err, util.ErrInvalidCompletion) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// AttemptRequest 单题作答记录
// swagger:model AttemptRequest
type AttemptRequest struct {
	QuestionID     uint    `json:"questionId" binding:"required"`
	QuizSessionID  string  `json:"quizSessionId"`
	SelectedOption string  `json:"selectedOption"`
	IsCorrect      bool    `json:"isCorrect"`
	TimeTaken      float64 `json:"timeTaken"`
}

// RecordAttempt godoc
// @Summary 记录一次单题作答
// @Description 已知题目时服务端重新判分；记录写入后不可变
// @Tags 测验
// @Accept json
// @Produce json
// @Param body body AttemptRequest true "作答记录"
// @Success 201 {object} util.Response{data=model.QuestionAttempt}
// @Failure 400 {object} util.Response "请求参数错误"
// @Security BearerAuth
// @Router /api/quiz/attempts [post]
func (c *QuizController) RecordAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.QuizService.RecordAttempt(claims.UserID, req.QuestionID, req.QuizSessionID, req.SelectedOption, req.IsCorrect, req.TimeTaken)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, attempt)
}
