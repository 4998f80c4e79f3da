package service

import (
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTopicService(t *testing.T) *TopicAnalysisService {
	t.Helper()
	return NewTopicAnalysisService(repository.NewTopicAnalysisRepository(newTestDB(t)))
}

func TestTopicMergeCreatesRow(t *testing.T) {
	svc := newTopicService(t)

	row, err := svc.Merge(1, "concurrency", 5, 3, 10)
	require.NoError(t, err)

	assert.Equal(t, 5, row.TotalAnswered)
	assert.Equal(t, 3, row.TotalCorrect)
	assert.Equal(t, 60.0, row.Accuracy)
	assert.Equal(t, 10.0, row.AvgTime)
	assert.False(t, row.LastPracticed.IsZero())
}

func TestTopicMergeFoldsDeltas(t *testing.T) {
	svc := newTopicService(t)

	_, err := svc.Merge(1, "slices", 5, 3, 10)
	require.NoError(t, err)
	row, err := svc.Merge(1, "slices", 5, 4, 6)
	require.NoError(t, err)

	assert.Equal(t, 10, row.TotalAnswered)
	assert.Equal(t, 7, row.TotalCorrect)
	assert.Equal(t, 70.0, row.Accuracy)
	// 加权平均：(10*5 + 6*5) / 10
	assert.InDelta(t, 8.0, row.AvgTime, 0.001)
}

func TestTopicMergeOrderIndependent(t *testing.T) {
	svc := newTopicService(t)

	_, err := svc.Merge(1, "interfaces", 5, 3, 10)
	require.NoError(t, err)
	a, err := svc.Merge(1, "interfaces", 5, 4, 6)
	require.NoError(t, err)

	_, err = svc.Merge(2, "interfaces", 5, 4, 6)
	require.NoError(t, err)
	b, err := svc.Merge(2, "interfaces", 5, 3, 10)
	require.NoError(t, err)

	assert.Equal(t, a.TotalAnswered, b.TotalAnswered)
	assert.Equal(t, a.TotalCorrect, b.TotalCorrect)
	assert.Equal(t, a.Accuracy, b.Accuracy)
	assert.InDelta(t, a.AvgTime, b.AvgTime, 0.001)
}

func TestTopicMergeAccuracyInvariant(t *testing.T) {
	svc := newTopicService(t)

	merges := [][3]int{{4, 2, 7}, {6, 6, 3}, {10, 5, 12}}
	answered, correct := 0, 0
	var row *model.TopicAnalysis
	var err error
	for _, m := range merges {
		row, err = svc.Merge(1, "errors", m[0], m[1], float64(m[2]))
		require.NoError(t, err)
		answered += m[0]
		correct += m[1]
	}

	assert.Equal(t, answered, row.TotalAnswered)
	assert.Equal(t, correct, row.TotalCorrect)
	assert.Equal(t, util.Round2(float64(correct)/float64(answered)*100), row.Accuracy)
}

func TestTopicMergeRejectsReservedTopic(t *testing.T) {
	db := newTestDB(t)
	svc := NewTopicAnalysisService(repository.NewTopicAnalysisRepository(db))

	_, err := svc.Merge(1, "general", 5, 3, 10)
	assert.ErrorIs(t, err, util.ErrReservedTopic)

	// 校验失败不留任何写入
	var count int64
	db.Model(&model.TopicAnalysis{}).Count(&count)
	assert.Zero(t, count)
}

func TestTopicMergeRejectsInvalidDeltas(t *testing.T) {
	svc := newTopicService(t)

	_, err := svc.Merge(1, "", 5, 3, 10)
	assert.ErrorIs(t, err, util.ErrInvalidMerge)

	_, err = svc.Merge(1, "slices", 0, 0, 10)
	assert.ErrorIs(t, err, util.ErrInvalidMerge)

	_, err = svc.Merge(1, "slices", 5, 6, 10)
	assert.ErrorIs(t, err, util.ErrInvalidMerge)

	_, err = svc.Merge(1, "slices", 5, -1, 10)
	assert.ErrorIs(t, err, util.ErrInvalidMerge)

	_, err = svc.Merge(1, "slices", 5, 3, -1)
	assert.ErrorIs(t, err, util.ErrInvalidMerge)
}

func TestTopicListScopedToUser(t *testing.T) {
	svc := newTopicService(t)

	_, err := svc.Merge(1, "slices", 5, 3, 10)
	require.NoError(t, err)
	_, err = svc.Merge(1, "concurrency", 4, 4, 8)
	require.NoError(t, err)
	_, err = svc.Merge(2, "slices", 2, 1, 5)
	require.NoError(t, err)

	rows, err := svc.ListByUser(1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// 按主题名排序
	assert.Equal(t, "concurrency", rows[0].Topic)
	assert.Equal(t, "slices", rows[1].Topic)
}
