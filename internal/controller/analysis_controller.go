package controller

import (
	"errors"
	"quizprep_backend/internal/service"
	"quizprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	TopicService        *service.TopicAnalysisService
	UserAnalysisService *service.UserAnalysisService
	StreakService       *service.StreakService
	ExportService       *service.ExportService
}

func NewAnalysisController(
	topicService *service.TopicAnalysisService,
	userAnalysisService *service.UserAnalysisService,
	streakService *service.StreakService,
	exportService *service.ExportService,
) *AnalysisController {
	return &AnalysisController{
		TopicService:        topicService,
		UserAnalysisService: userAnalysisService,
		StreakService:       streakService,
		ExportService:       exportService,
	}
}

// TopicMergeRequest 主题统计合并增量
// swagger:model TopicMergeRequest
type TopicMergeRequest struct {
	Topic             string  `json:"topic" binding:"required"`
	QuestionsAnswered int     `json:"questionsAnswered" binding:"required"`
	CorrectAnswers    int     `json:"correctAnswers"`
	AvgTimeSample     float64 `json:"avgTimeSample"`
}

// MergeTopic godoc
// @Summary 合并一次主题答题增量
// @Description 把一批答题结果折叠进(用户,主题)累计行；保留主题"general"拒绝写入
// @Tags 分析
// @Accept json
// @Produce json
// @Param body body TopicMergeRequest true "合并增量"
// @Success 200 {object} util.Response{data=model.TopicAnalysis}
// @Failure 400 {object} util.Response "增量非法或主题被保留"
// @Failure 409 {object} util.Response "并发冲突，重试仍失败"
// @Security BearerAuth
// @Router /api/analysis/topics/merge [post]
func (c *AnalysisController) MergeTopic(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req TopicMergeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	row, err := c.TopicService.Merge(claims.UserID, req.Topic, req.QuestionsAnswered, req.CorrectAnswers, req.AvgTimeSample)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrReservedTopic), errors.Is(err, util.ErrInvalidMerge):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrMergeContention):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, row)
}

// ListTopics godoc
// @Summary 查看各主题累计统计
// @Tags 分析
// @Produce json
// @Success 200 {object} util.Response{data=[]model.TopicAnalysis}
// @Security BearerAuth
// @Router /api/analysis/topics [get]
func (c *AnalysisController) ListTopics(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	rows, err := c.TopicService.ListByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, rows)
}

// GetUserAnalysis godoc
// @Summary 查看用户汇总统计
// @Description 默认读缓存；refresh=true时从源表重算并覆盖缓存
// @Tags 分析
// @Produce json
// @Param refresh query bool false "强制重算"
// @Success 200 {object} util.Response{data=model.UserAnalysis}
// @Security BearerAuth
// @Router /api/analysis/user [get]
func (c *AnalysisController) GetUserAnalysis(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	forceRefresh := ctx.Query("refresh") == "true"
	row, err := c.UserAnalysisService.GetAnalysis(claims.UserID, forceRefresh)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, row)
}

// GetStreak godoc
// @Summary 查看连续练习天数
// @Description 每次读取都从完成历史重算，存储行仅作缓存
// @Tags 分析
// @Produce json
// @Success 200 {object} util.Response{data=model.StreakRecord}
// @Security BearerAuth
// @Router /api/analysis/streak [get]
func (c *AnalysisController) GetStreak(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	record, err := c.StreakService.GetStreak(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, record)
}

// Export godoc
// @Summary 导出答题明细
// @Description 生成CSV上传到对象存储并返回限时下载地址
// @Tags 分析
// @Produce json
// @Success 200 {object} util.Response{data=object}
// @Security BearerAuth
// @Router /api/analysis/export [get]
func (c *AnalysisController) Export(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if c.ExportService == nil {
		util.Error(ctx, 503, "导出服务未配置")
		return
	}

	url, err := c.ExportService.ExportAttempts(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}
