package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreAnswer(t *testing.T) {
	assert.True(t, ScoreAnswer("分配新的底层数组", "分配新的底层数组"))
	assert.False(t, ScoreAnswer("原地扩容", "分配新的底层数组"))

	// 精确匹配，不做大小写或空白归一化
	assert.False(t, ScoreAnswer("Goroutine", "goroutine"))
	assert.False(t, ScoreAnswer(" goroutine", "goroutine"))
}

func TestScoreAnswerUnanswered(t *testing.T) {
	assert.False(t, ScoreAnswer(UnansweredOption, "anything"))
	// 哨兵值即使与正确答案相同也不判对
	assert.False(t, ScoreAnswer(UnansweredOption, UnansweredOption))
}
