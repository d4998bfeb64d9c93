package csvdata

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"csvrelay/internal/pkg/response"
)

const (
	formFieldRequestID = "requestId"
	formFieldFile      = "file"

	defaultTransferEncoding = "7bit"
)

// Handler serves the upload and lookup endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload godoc
// @Summary Upload a CSV file
// @Description Parses the CSV, pushes rows in batches to a connected WebSocket client and stores the file descriptor.
// @Tags CSV
// @Accept multipart/form-data
// @Produce json
// @Param requestId formData string true "Request identifier"
// @Param file formData file true "CSV file"
// @Success 200 {object} map[string]interface{}
// @Failure 400,500 {object} map[string]interface{}
// @Router /upload [post]
func (h *Handler) Upload(c *gin.Context) {
	in := UploadInput{RequestID: c.PostForm(formFieldRequestID)}

	if fileHeader, err := c.FormFile(formFieldFile); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			response.ErrorWithDetails(c, http.StatusInternalServerError, "Error processing file", err)
			return
		}
		defer file.Close()

		in.File = file
		in.Descriptor = describeFile(formFieldFile, fileHeader)
	}
	in.Extra = extraFormFields(c)

	result, err := h.service.HandleUpload(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestIDRequired):
			response.Error(c, http.StatusBadRequest, "requestId is required")
		case errors.Is(err, ErrFileRequired):
			response.Error(c, http.StatusBadRequest, "CSV file is required")
		case errors.Is(err, ErrNotCSV):
			response.Error(c, http.StatusBadRequest, "Only CSV files are allowed")
		case errors.Is(err, ErrNoClientAvailable):
			response.Error(c, http.StatusInternalServerError, "No WebSocket client connected")
		case errors.Is(err, ErrParse):
			response.ErrorWithDetails(c, http.StatusInternalServerError, "Error processing file", err)
		default:
			log.Printf("csv_upload_error request_id=%s error=%v", in.RequestID, err)
			response.ErrorWithDetails(c, http.StatusInternalServerError, "Internal Server Error", err)
		}
		return
	}

	response.OK(c, "File processed and saved successfully", result)
}

// GetByRequestID godoc
// @Summary Get a stored CSV upload record
// @Description Not-found is reported as HTTP 200 with status 404 in the body.
// @Tags CSV
// @Produce json
// @Param requestId path string true "Request identifier"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /csvData/{requestId} [get]
func (h *Handler) GetByRequestID(c *gin.Context) {
	requestID := c.Param("requestId")

	rec, err := h.service.GetByRequestID(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			response.NotFound(c, "Data not found")
			return
		}
		log.Printf("csv_lookup_error request_id=%s error=%v", requestID, err)
		response.ErrorWithDetails(c, http.StatusInternalServerError, "Internal Server Error", err)
		return
	}

	response.OK(c, "Csv file", rec)
}

func describeFile(field string, fh *multipart.FileHeader) FileDescriptor {
	encoding := fh.Header.Get("Content-Transfer-Encoding")
	if encoding == "" {
		encoding = defaultTransferEncoding
	}
	return FileDescriptor{
		FieldName:    field,
		OriginalName: fh.Filename,
		Encoding:     encoding,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
	}
}

// extraFormFields collects text fields other than requestId.
func extraFormFields(c *gin.Context) map[string]any {
	var values map[string][]string
	if form := c.Request.MultipartForm; form != nil {
		values = form.Value
	} else {
		values = c.Request.PostForm
	}

	extra := make(map[string]any)
	for key, vs := range values {
		if key == formFieldRequestID || len(vs) == 0 {
			continue
		}
		if len(vs) == 1 {
			extra[key] = vs[0]
			continue
		}
		extra[key] = vs
	}
	return extra
}
