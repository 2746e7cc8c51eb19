// Package upload stores evidence photos and links them to the records they document.
package upload

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorage is the subset of an object store the upload flow needs
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, key string) error
}

// Target names what a photo documents
type Target string

const (
	// TargetItem is the item's own photo
	TargetItem Target = "item"
	// TargetCutPolish is the evidence photo of a cut-and-polish record
	TargetCutPolish Target = "cut-polish"
	// TargetHeatTreatment is the after-heat photo of a treated item
	TargetHeatTreatment Target = "heat-treatment"
)

// ParseTarget validates a raw target name
func ParseTarget(raw string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(raw))); t {
	case TargetItem, TargetCutPolish, TargetHeatTreatment:
		return t, nil
	}
	return "", shared.NewValidationError("unknown upload target %q", raw)
}

const keyPrefix = "photos/"

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// DefaultMaxSize bounds an upload when no limit is configured
const DefaultMaxSize int64 = 8 << 20

// PhotoRequest is one photo to store
type PhotoRequest struct {
	Target  Target
	OwnerID int64
	Data    []byte
}

// PhotoResponse locates a stored photo
type PhotoResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service stores photos and writes their keys onto the owning record
type Service struct {
	storage       ObjectStorage
	scope         common.TransactionScope
	locker        common.Locker
	logger        *zap.Logger
	maxSize       int64
	presignExpiry time.Duration
}

// Option configures the upload service
type Option func(*Service)

// WithMaxSize sets the largest accepted photo in bytes
func WithMaxSize(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithPresignExpiry sets how long returned URLs stay valid
func WithPresignExpiry(d time.Duration) Option {
	return func(s *Service) {
		s.presignExpiry = d
	}
}

// WithLocker sets the distributed locker
func WithLocker(locker common.Locker) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new upload Service. A nil storage makes every call
// fail with STORAGE_UNAVAILABLE.
func NewService(storage ObjectStorage, scope common.TransactionScope, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		scope:   scope,
		locker:  common.NoopLocker{},
		logger:  zap.NewNop(),
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether an object store is configured
func (s *Service) Enabled() bool {
	return s.storage != nil
}

// MaxSize is the largest photo accepted, in bytes
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// UploadPhoto stores the photo, then records its key on the owner.
// The object is removed again when the owner cannot be updated.
func (s *Service) UploadPhoto(ctx context.Context, req PhotoRequest) (*PhotoResponse, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("photo upload: %w", shared.ErrStorageUnavailable)
	}
	if req.OwnerID <= 0 {
		return nil, shared.NewValidationError("owner id must be positive")
	}
	if _, err := ParseTarget(string(req.Target)); err != nil {
		return nil, err
	}
	if len(req.Data) == 0 {
		return nil, shared.NewValidationError("photo is empty")
	}
	if int64(len(req.Data)) > s.maxSize {
		return nil, shared.NewValidationError("photo is %d bytes, limit is %d", len(req.Data), s.maxSize)
	}
	contentType := http.DetectContentType(req.Data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, shared.NewValidationError("unsupported photo type %s", contentType)
	}

	key := fmt.Sprintf("%s%s/%d/%s%s", keyPrefix, req.Target, req.OwnerID, uuid.New().String(), ext)
	if err := s.storage.Upload(ctx, key, req.Data, contentType); err != nil {
		return nil, err
	}

	if err := s.attach(ctx, req.Target, req.OwnerID, key); err != nil {
		if delErr := s.storage.DeleteObject(ctx, key); delErr != nil {
			s.logger.Warn("orphaned photo left in storage", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.presignExpiry)
	if err != nil {
		return nil, err
	}
	s.logger.Info("photo stored",
		zap.String("target", string(req.Target)),
		zap.Int64("owner_id", req.OwnerID),
		zap.String("key", key),
		zap.Int("size", len(req.Data)))
	return &PhotoResponse{Key: key, URL: url, ExpiresAt: expiresAt}, nil
}

// DownloadURL presigns a read of a previously stored photo
func (s *Service) DownloadURL(ctx context.Context, key string) (*PhotoResponse, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("photo download: %w", shared.ErrStorageUnavailable)
	}
	if !strings.HasPrefix(key, keyPrefix) || strings.Contains(key, "..") {
		return nil, shared.NewValidationError("invalid photo key %q", key)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.presignExpiry)
	if err != nil {
		return nil, err
	}
	return &PhotoResponse{Key: key, URL: url, ExpiresAt: expiresAt}, nil
}

func (s *Service) attach(ctx context.Context, target Target, ownerID int64, key string) error {
	if target == TargetCutPolish {
		return s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			record, err := repos.CutPolishRepo().FindByID(ctx, ownerID)
			if err != nil {
				return err
			}
			if err := record.Update(key, record.Remark); err != nil {
				return err
			}
			return repos.CutPolishRepo().Save(ctx, record)
		})
	}

	release, err := s.locker.Acquire(ctx, common.ItemLockKey(ownerID))
	if err != nil {
		return err
	}
	defer release()

	return s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if err := item.EnsureActive(); err != nil {
			return err
		}
		var details inventory.UpdateDetails
		if target == TargetHeatTreatment {
			details.PhotosAfterHTLink = &key
		} else {
			details.PhotoLink = &key
		}
		if err := item.Update(details); err != nil {
			return err
		}
		return repos.ItemRepo().Save(ctx, item)
	})
}
