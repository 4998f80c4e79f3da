package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"quizprep_backend/internal/config"
	"quizprep_backend/internal/repository"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ExportService 把用户的答题明细导出为CSV并上传到对象存储，
// 返回限时下载链接
type ExportService struct {
	AttemptRepo *repository.QuestionAttemptRepository
	Client      *minio.Client
	Cfg         *config.StorageConfig
}

func NewExportService(attemptRepo *repository.QuestionAttemptRepository, cfg *config.StorageConfig) (*ExportService, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &ExportService{
		AttemptRepo: attemptRepo,
		Client:      client,
		Cfg:         cfg,
	}, nil
}

// ExportAttempts 生成CSV、上传并签发1小时有效的下载地址
func (s *ExportService) ExportAttempts(ctx context.Context, userID uint) (string, error) {
	attempts, err := s.AttemptRepo.FindByUser(userID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"question_id", "session_id", "selected_option", "is_correct", "time_taken", "attempted_at"})
	for _, a := range attempts {
		_ = w.Write([]string{
			strconv.FormatUint(uint64(a.QuestionID), 10),
			a.QuizSessionID,
			a.SelectedOption,
			strconv.FormatBool(a.IsCorrect),
			strconv.FormatFloat(a.TimeTaken, 'f', 2, 64),
			a.AttemptedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("exports/attempts_%d_%d.csv", userID, time.Now().Unix())
	_, err = s.Client.PutObject(ctx, s.Cfg.MinioBucket, objectName,
		bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return "", err
	}

	presigned, err := s.Client.PresignedGetObject(ctx, s.Cfg.MinioBucket, objectName, time.Hour, url.Values{})
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
