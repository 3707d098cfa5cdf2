package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrUploadFailed   = errors.New(errors.ErrCodeExternalService, "upload failed")
	ErrDownloadFailed = errors.New(errors.ErrCodeExternalService, "download failed")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// ReportStore archives raw prediction reports.
type ReportStore interface {
	PutReport(ctx context.Context, req *ReportUpload) (*StoredReport, error)
	GetReport(ctx context.Context, objectKey string) ([]byte, error)
	PresignReport(ctx context.Context, objectKey string) (string, error)
}

type ReportUpload struct {
	Task        string
	ChatID      string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type StoredReport struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type reportRepository struct {
	client *MinIOClient
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

func NewReportRepository(client *MinIOClient, log logging.Logger) ReportStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &reportRepository{
		client: client,
		logger: log.Named("report_store"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// ReportKey lays reports out as {task}/{yyyy}/{mm}/{dd}/{id}.csv, with the chat id
// prepended to the file name when known.
func ReportKey(task, chatID, id string, at time.Time) string {
	at = at.UTC()
	name := id
	if chatID != "" {
		name = chatID + "-" + id
	}
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s.csv", strings.ReplaceAll(strings.ToLower(task), " ", "_"), at.Year(), int(at.Month()), at.Day(), name)
}

func (r *reportRepository) PutReport(ctx context.Context, req *ReportUpload) (*StoredReport, error) {
	if req == nil || req.Task == "" || len(req.Data) == 0 {
		return nil, ErrInvalidRequest
	}
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}

	uploadedAt := r.now()
	key := ReportKey(req.Task, req.ChatID, r.newID(), uploadedAt)
	meta := map[string]string{"task": req.Task}
	if req.ChatID != "" {
		meta["chat-id"] = req.ChatID
	}
	for k, v := range req.Metadata {
		meta[k] = v
	}

	info, err := r.client.GetClient().PutObject(ctx, r.client.Bucket(), key, bytes.NewReader(req.Data), int64(len(req.Data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	if err != nil {
		r.logger.Warn("report upload failed", logging.String("key", key), logging.Err(err))
		return nil, ErrUploadFailed.WithCause(err)
	}

	r.logger.Debug("report stored", logging.String("key", key), logging.Int64("size", info.Size))
	return &StoredReport{
		Bucket:     r.client.Bucket(),
		ObjectKey:  key,
		ETag:       info.ETag,
		Size:       info.Size,
		UploadedAt: uploadedAt,
	}, nil
}

func (r *reportRepository) GetReport(ctx context.Context, objectKey string) ([]byte, error) {
	if objectKey == "" {
		return nil, ErrInvalidRequest
	}
	api := r.client.GetClient()
	if _, err := api.StatObject(ctx, r.client.Bucket(), objectKey, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound.WithDetail(objectKey)
		}
		return nil, ErrDownloadFailed.WithCause(err)
	}

	obj, err := api.GetObject(ctx, r.client.Bucket(), objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, ErrDownloadFailed.WithCause(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, ErrDownloadFailed.WithCause(err)
	}
	return data, nil
}

func (r *reportRepository) PresignReport(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", ErrInvalidRequest
	}
	u, err := r.client.GetClient().PresignedGetObject(ctx, r.client.Bucket(), objectKey, r.client.config.PresignExpiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to presign report url")
	}
	return u.String(), nil
}

//Personal.AI order the ending
