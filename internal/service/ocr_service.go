package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/pkg/config"
)

// TagExtractor picks a service tag out of free-form OCR text.
type TagExtractor interface {
	ExtractTag(ctx context.Context, text string) (string, bool)
}

var (
	labeledTagPattern = regexp.MustCompile(`(?:SERVICE\s*TAG|S/?N|SERIAL(?:\s*(?:NO|NUMBER))?)[:#.\s]*([A-Z0-9]{5,12})`)
	dellTagPattern    = regexp.MustCompile(`\b[A-Z0-9]{7}\b`)
	hpTagPattern      = regexp.MustCompile(`\b[A-Z0-9]{10}\b`)
	genericTagPattern = regexp.MustCompile(`\b[A-Z0-9]{6,12}\b`)
)

// Words that look like tags but show up on every device label.
var tagStopWords = map[string]bool{
	"MODEL":   true,
	"SERIAL":  true,
	"SERVICE": true,
	"PRODUCT": true,
	"WINDOWS": true,
	"INTEL":   true,
	"CORE":    true,
	"VERSION": true,
}

// OCRService extracts service tags from label photos. Text already read by
// the client is matched locally; raw images go to the configured OCR backend
// first.
type OCRService struct {
	cfg        config.OCRConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOCRService builds an OCRService.
func NewOCRService(cfg config.OCRConfig, logger *zap.Logger) *OCRService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OCRService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// ExtractTag scans OCR text for the most likely service tag. Labeled tags
// win, then Dell-style 7-character tags, then HP-style 10-character ones,
// then any plausible alphanumeric run.
func (s *OCRService) ExtractTag(_ context.Context, text string) (string, bool) {
	upper := strings.ToUpper(text)

	if m := labeledTagPattern.FindStringSubmatch(upper); len(m) == 2 && !tagStopWords[m[1]] {
		return m[1], true
	}
	for _, pattern := range []*regexp.Regexp{dellTagPattern, hpTagPattern, genericTagPattern} {
		for _, candidate := range pattern.FindAllString(upper, -1) {
			if tagStopWords[candidate] {
				continue
			}
			if !strings.ContainsAny(candidate, "0123456789") {
				continue
			}
			return candidate, true
		}
	}
	return "", false
}

type ocrBackendResponse struct {
	Text string `json:"text"`
}

// ExtractFromImage sends image bytes to the OCR backend and matches the
// returned text. Returns found=false when the backend is disabled.
func (s *OCRService) ExtractFromImage(ctx context.Context, image io.Reader) (string, bool, error) {
	if !s.cfg.Enabled || s.cfg.Endpoint == "" {
		return "", false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, image)
	if err != nil {
		return "", false, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("call ocr backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("ocr backend returned status %d", resp.StatusCode)
	}

	var payload ocrBackendResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false, fmt.Errorf("decode ocr response: %w", err)
	}

	tag, found := s.ExtractTag(ctx, payload.Text)
	return tag, found, nil
}
