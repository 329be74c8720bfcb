package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"freshr-backend/internal/export"
	"freshr-backend/internal/middleware"
	"freshr-backend/internal/models"
	"freshr-backend/internal/services"
)

type presentationGenerator interface {
	GeneratePresentation(ctx context.Context, userID uuid.UUID, req models.GeneratePresentationRequest) (*models.GeneratedPresentationData, error)
}

type PresentationHandler struct {
	generator presentationGenerator
	extractor contentPreparer
}

func NewPresentationHandler(generator presentationGenerator, extractor contentPreparer) *PresentationHandler {
	return &PresentationHandler{generator: generator, extractor: extractor}
}

func (h *PresentationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	form, err := readContentForm(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	content, err := h.extractor.PrepareContent(form.file, form.mimeType, form.text)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	outline, err := h.generator.GeneratePresentation(r.Context(), userID, models.GeneratePresentationRequest{
		Content:        content,
		NumberOfSlides: form.intValue("numberOfSlides"),
		Style:          strings.ToLower(strings.TrimSpace(form.values["style"])),
		Format:         models.SlideFormat(strings.ToLower(strings.TrimSpace(form.values["format"]))),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "presentation": outline})
}

// Export renders an outline to a downloadable deck or document. Nothing is
// written until the whole file has been encoded.
func (h *PresentationHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req models.ExportPresentationRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if req.Presentation == nil {
		handleServiceError(w, r, export.Validate(nil))
		return
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	theme, err := export.ParseTheme(req.Theme)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var data []byte
	switch format {
	case export.FormatPDF:
		data, err = export.RenderPDF(req.Presentation, theme)
	default:
		data, err = export.RenderPPTX(req.Presentation, theme)
	}
	if err != nil {
		var validation *services.ValidationError
		if errors.As(err, &validation) {
			handleServiceError(w, r, err)
			return
		}
		log.Printf("Presentation export failed (%s): %v", format, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("EXPORT_FAILED", "Failed to export presentation", r))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(req.Presentation.Title, format)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
