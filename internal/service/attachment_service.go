package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"tasktracker/backend/internal/model"
	"tasktracker/backend/internal/repository"
)

var (
	ErrInvalidFileType    = errors.New("file must be an image or PDF")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidSignature   = errors.New("upload signature is invalid")
	ErrUploadURLExpired   = errors.New("upload url has expired")
)

var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".pdf"}

// AttachmentService brokers uploads to the external object store. It
// never touches file bytes: it records a pending attachment, hands the
// client a signed upload URL, and flips the row to uploaded when the
// store's webhook confirms completion.
type AttachmentService struct {
	attachments *repository.AttachmentRepository
	tasks       *TaskService
	secret      []byte
	urlTTL      time.Duration
	now         func() time.Time
}

func NewAttachmentService(
	attachments *repository.AttachmentRepository,
	tasks *TaskService,
	secret string,
	urlTTL time.Duration,
) *AttachmentService {
	return &AttachmentService{
		attachments: attachments,
		tasks:       tasks,
		secret:      []byte(secret),
		urlTTL:      urlTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateUploadURL validates the file name, records a pending
// attachment and returns it with a signed, time-limited upload URL.
func (s *AttachmentService) CreateUploadURL(ctx context.Context, taskID int64, fileName string) (*model.Attachment, string, error) {
	if !hasAllowedExtension(fileName) {
		return nil, "", ErrInvalidFileType
	}
	if _, err := s.tasks.Get(ctx, taskID); err != nil {
		return nil, "", err
	}

	attachment := &model.Attachment{
		TaskID:    taskID,
		FileName:  fileName,
		Status:    model.AttachmentStatusPending,
		CreatedAt: s.now(),
	}
	id, err := s.attachments.Create(ctx, attachment)
	if err != nil {
		return nil, "", err
	}
	attachment.ID = id

	expires := s.now().Add(s.urlTTL).Unix()
	url := fmt.Sprintf("/uploads/%d?expires=%d&signature=%s", id, expires, s.sign(id, expires))
	return attachment, url, nil
}

// ConfirmUpload is the webhook entry point: the object store calls back
// with the attachment id and the signature it was handed.
func (s *AttachmentService) ConfirmUpload(ctx context.Context, attachmentID, expires int64, signature string) (*model.Attachment, error) {
	if !hmac.Equal([]byte(signature), []byte(s.sign(attachmentID, expires))) {
		return nil, ErrInvalidSignature
	}
	if s.now().Unix() > expires {
		return nil, ErrUploadURLExpired
	}

	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, err
	}

	if attachment.Status != model.AttachmentStatusUploaded {
		if err := s.attachments.UpdateStatus(ctx, attachmentID, model.AttachmentStatusUploaded); err != nil {
			return nil, err
		}
		attachment.Status = model.AttachmentStatusUploaded
	}
	return attachment, nil
}

func (s *AttachmentService) ListByTask(ctx context.Context, taskID int64) ([]model.Attachment, error) {
	if _, err := s.tasks.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.attachments.ListByTask(ctx, taskID)
}

func (s *AttachmentService) sign(attachmentID, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%d:%d", attachmentID, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

func hasAllowedExtension(fileName string) bool {
	lower := strings.ToLower(fileName)
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return true
		}
	}
	return false
}
