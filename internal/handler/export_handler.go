package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/arka-widjaja/timetable-engine/internal/models"
	"github.com/arka-widjaja/timetable-engine/pkg/export"
	appErrors "github.com/arka-widjaja/timetable-engine/pkg/errors"
	"github.com/arka-widjaja/timetable-engine/pkg/response"
	"github.com/arka-widjaja/timetable-engine/pkg/storage"
)

// ExportHandler renders a WeeklySchedule into CSV or PDF and hands back a
// signed, time-limited download link rather than the file body itself —
// the grid can be large and callers usually just want a link to share.
type ExportHandler struct {
	files     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	apiPrefix string
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validate  *validator.Validate
}

// NewExportHandler constructs the handler. validate may be nil, in which
// case a default validator.New() is used.
func NewExportHandler(files *storage.LocalStorage, signer *storage.SignedURLSigner, apiPrefix string, validate *validator.Validate) *ExportHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ExportHandler{
		files:     files,
		signer:    signer,
		apiPrefix: apiPrefix,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validate:  validate,
	}
}

// exportRequest is the wire shape shared by both export formats.
type exportRequest struct {
	Entries []models.ScheduleEntry `json:"entries" validate:"required,min=1,dive"`
}

// exportDownloadResponse wraps a signed, time-limited link to a rendered file.
type exportDownloadResponse struct {
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func scheduleDataset(entries []models.ScheduleEntry) export.Dataset {
	headers := []string{"day", "startTime", "endTime", "batchId", "subjectId", "facultyId"}
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"day":       e.Slot.Day.String(),
			"startTime": e.Slot.StartTime,
			"endTime":   e.Slot.EndTime,
			"batchId":   e.BatchID,
			"subjectId": e.SubjectID,
			"facultyId": e.FacultyID,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// SchedulePDF renders the posted schedule to PDF and returns a signed
// download link. POST /schedules/export.pdf
func (h *ExportHandler) SchedulePDF(c *gin.Context) {
	req, ok := h.bindExportRequest(c)
	if !ok {
		return
	}
	body, err := h.pdf.Render(scheduleDataset(req.Entries), "weekly schedule")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, err.Error()))
		return
	}
	h.respondWithDownload(c, body, "pdf")
}

// ScheduleCSV renders the posted schedule to CSV and returns a signed
// download link. POST /schedules/export.csv
func (h *ExportHandler) ScheduleCSV(c *gin.Context) {
	req, ok := h.bindExportRequest(c)
	if !ok {
		return
	}
	body, err := h.csv.Render(scheduleDataset(req.Entries))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, err.Error()))
		return
	}
	h.respondWithDownload(c, body, "csv")
}

func (h *ExportHandler) bindExportRequest(c *gin.Context) (exportRequest, bool) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return exportRequest{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return exportRequest{}, false
	}
	return req, true
}

func (h *ExportHandler) respondWithDownload(c *gin.Context, body []byte, ext string) {
	jobID := uuid.NewString()
	relPath := fmt.Sprintf("%s/schedule.%s", jobID, ext)
	if _, err := h.files.Save(relPath, body); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, err.Error()))
		return
	}
	token, expiresAt, err := h.signer.Generate(jobID, relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, err.Error()))
		return
	}
	payload := exportDownloadResponse{
		DownloadURL: fmt.Sprintf("%s/exports/download?token=%s", h.apiPrefix, token),
		ExpiresAt:   expiresAt,
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Download streams a previously exported file back to the caller after
// validating its signed token. GET /exports/download
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	jobID, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	file, err := h.files.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export expired or not found"))
		return
	}
	defer file.Close() //nolint:errcheck
	modTime := time.Now()
	if info, err := file.Stat(); err == nil {
		modTime = info.ModTime()
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, jobID))
	http.ServeContent(c.Writer, c.Request, relPath, modTime, file)
}
