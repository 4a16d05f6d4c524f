package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/pkg/config"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
	"github.com/sanketcencora/squadron-verify-api/pkg/storage"
)

// EvidenceService stores uploaded label photos and hands out signed download
// URLs so the admin UI never touches raw file paths.
type EvidenceService struct {
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	cfg    config.EvidenceConfig
	logger *zap.Logger
}

// NewEvidenceService constructs an EvidenceService.
func NewEvidenceService(store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg config.EvidenceConfig, logger *zap.Logger) *EvidenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvidenceService{store: store, signer: signer, cfg: cfg, logger: logger}
}

// Save persists an uploaded image and returns the reference to store on the
// verification record.
func (s *EvidenceService) Save(_ context.Context, campaignID, originalName string, size int64, r io.Reader) (string, error) {
	if s.cfg.MaxFileSizeBytes > 0 && size > s.cfg.MaxFileSizeBytes {
		return "", appErrors.Clone(appErrors.ErrValidation, "evidence file is too large")
	}
	ext := strings.ToLower(path.Ext(originalName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "evidence must be an image")
	}

	relPath := fmt.Sprintf("%s/%s%s", campaignID, uuid.NewString(), ext)
	limited := r
	if s.cfg.MaxFileSizeBytes > 0 {
		limited = io.LimitReader(r, s.cfg.MaxFileSizeBytes+1)
	}
	if _, err := s.store.SaveStream(relPath, limited); err != nil {
		return "", fmt.Errorf("store evidence: %w", err)
	}
	return relPath, nil
}

// SignedURL returns a time-limited download token for a stored evidence file.
func (s *EvidenceService) SignedURL(recordID, relPath string) (string, time.Time, error) {
	if relPath == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "record has no evidence")
	}
	return s.signer.Generate(recordID, relPath)
}

// Open validates a signed token and opens the file it references.
func (s *EvidenceService) Open(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "evidence file missing")
	}
	return file, nil
}
