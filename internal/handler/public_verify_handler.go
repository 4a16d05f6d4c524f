package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanketcencora/squadron-verify-api/internal/dto"
	"github.com/sanketcencora/squadron-verify-api/internal/service"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
	"github.com/sanketcencora/squadron-verify-api/pkg/response"
)

// PublicVerifyHandler is the token-gated surface employees hit from their
// verification link. None of these routes require a login.
type PublicVerifyHandler struct {
	public   *service.PublicVerifyService
	tokens   *service.TokenService
	evidence *service.EvidenceService
	ocr      *service.OCRService
	metrics  *service.MetricsService
}

// NewPublicVerifyHandler constructs PublicVerifyHandler.
func NewPublicVerifyHandler(public *service.PublicVerifyService, tokens *service.TokenService, evidence *service.EvidenceService, ocr *service.OCRService, metrics *service.MetricsService) *PublicVerifyHandler {
	return &PublicVerifyHandler{public: public, tokens: tokens, evidence: evidence, ocr: ocr, metrics: metrics}
}

// Payload godoc
// @Summary Resolve a verification link
// @Description Returns the employee's open records and peripherals for the verification page
// @Tags Public
// @Produce json
// @Param token path string true "Link secret"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /public/verify/{token} [get]
func (h *PublicVerifyHandler) Payload(c *gin.Context) {
	payload, err := h.public.Payload(c.Request.Context(), c.Param("token"))
	h.observeRedemption(err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Submit godoc
// @Summary Submit one asset verification
// @Description Records the employee's answer for a single asset; the link stays usable
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Link secret"
// @Param payload body dto.SubmitVerificationRequest true "Submission payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /public/verify/{token}/submit [post]
func (h *PublicVerifyHandler) Submit(c *gin.Context) {
	var req dto.SubmitVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.public.Submit(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		h.metrics.SubmissionObserved("error")
		response.Error(c, err)
		return
	}
	h.metrics.SubmissionObserved(string(result.Status))
	response.JSON(c, http.StatusOK, result, nil)
}

// ExtractTag godoc
// @Summary Extract a service tag from OCR text
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Link secret"
// @Param payload body dto.ExtractTagRequest true "OCR text"
// @Success 200 {object} response.Envelope
// @Router /public/verify/{token}/extract-tag [post]
func (h *PublicVerifyHandler) ExtractTag(c *gin.Context) {
	var req dto.ExtractTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.public.ExtractTag(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UploadEvidence godoc
// @Summary Upload a label photo
// @Description Stores the photo and, when possible, reads the service tag off it
// @Tags Public
// @Accept multipart/form-data
// @Produce json
// @Param token path string true "Link secret"
// @Param file formData file true "Label photo"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /public/verify/{token}/evidence [post]
func (h *PublicVerifyHandler) UploadEvidence(c *gin.Context) {
	token, err := h.tokens.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "evidence file required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	ref, err := h.evidence.Save(c.Request.Context(), token.CampaignID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := gin.H{"evidence_ref": ref}
	if h.ocr != nil {
		if reader, err := fileHeader.Open(); err == nil {
			defer reader.Close()
			if tag, found, err := h.ocr.ExtractFromImage(c.Request.Context(), reader); err == nil && found {
				result["extracted_tag"] = tag
			}
		}
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Complete godoc
// @Summary Finish the verification session
// @Description Consumes the link; it cannot be used again
// @Tags Public
// @Produce json
// @Param token path string true "Link secret"
// @Success 200 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /public/verify/{token}/complete [post]
func (h *PublicVerifyHandler) Complete(c *gin.Context) {
	result, err := h.public.Complete(c.Request.Context(), c.Param("token"))
	h.observeRedemption(err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DownloadEvidence godoc
// @Summary Download an evidence file via a signed link
// @Tags Public
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /public/evidence/{token} [get]
func (h *PublicVerifyHandler) DownloadEvidence(c *gin.Context) {
	file, err := h.evidence.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

func (h *PublicVerifyHandler) observeRedemption(err error) {
	switch {
	case err == nil:
		h.metrics.RedemptionObserved("ok")
	case errors.Is(err, appErrors.ErrTokenExpired):
		h.metrics.RedemptionObserved("expired")
	case errors.Is(err, appErrors.ErrTokenAlreadyUsed):
		h.metrics.RedemptionObserved("used")
	case errors.Is(err, appErrors.ErrTokenNotFound):
		h.metrics.RedemptionObserved("unknown")
	default:
		h.metrics.RedemptionObserved("error")
	}
}
