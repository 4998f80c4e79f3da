package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")

	// ErrReservedTopic 禁止向保留主题"general"写入统计
	ErrReservedTopic = errors.New("topic \"general\" is reserved")

	// ErrSessionExpired 聊天端引用的测验会话已不存在，只能重新开始
	ErrSessionExpired = errors.New("quiz session expired")

	// ErrStaleCallback 回调指向的会话已被新会话取代
	ErrStaleCallback = errors.New("callback refers to a superseded session")

	// ErrDuplicateAnswer 当前题目已作答，重复回调被拒绝
	ErrDuplicateAnswer = errors.New("question already answered")

	// ErrInvalidCompletion 完成记录字段缺失或非法
	ErrInvalidCompletion = errors.New("invalid quiz completion payload")

	// ErrInvalidMerge 合并增量字段缺失或非法
	ErrInvalidMerge = errors.New("invalid merge deltas")

	// ErrMergeContention 乐观合并多次重试仍冲突
	ErrMergeContention = errors.New("merge contention, please retry")

	ErrNoQuestions     = errors.New("no questions available for the requested filters")
	ErrLinkCodeInvalid = errors.New("invalid or expired link code")
)
