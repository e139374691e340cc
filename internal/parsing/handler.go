package parsing

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/server/middleware"
	"resume-ingest/internal/shared/server/respond"
	"resume-ingest/internal/shared/util"
)

// multipartOverhead leaves room for form boundaries so an upload at exactly
// MaxFileSize is still read in full.
const multipartOverhead = 1 << 20

// Handler exposes the parse endpoint.
type Handler struct {
	Svc     *Service
	Timeout time.Duration
}

// NewHandler constructs a Handler. A zero timeout leaves the request context as is.
func NewHandler(svc *Service, timeout time.Duration) *Handler {
	return &Handler{Svc: svc, Timeout: timeout}
}

// RegisterRoutes attaches parse routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes/parse", h.parse)
}

func (h *Handler) parse(c *gin.Context) {
	ctx := c.Request.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	file, err := h.readFile(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read upload", nil)
		return
	}

	resp := h.Svc.Parse(ctx, Request{
		UserID: middleware.UserIDFromContext(c),
		File:   file,
	}, nil)
	c.Set("parseId", resp.ID)
	c.Set("parseState", string(resp.State))
	respond.JSON(c, statusFor(resp), resp)
}

// readFile returns nil when the form has no file part. An oversized body is
// reported as a File with only Size set so validation rejects it in order.
func (h *Handler) readFile(c *gin.Context) (*File, error) {
	limit := h.Svc.maxFileSize() + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			size := c.Request.ContentLength
			if size <= limit {
				size = limit + 1
			}
			return &File{Size: size}, nil
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		default:
			return nil, err
		}
	}
	if fileHeader.Size > h.Svc.maxFileSize() {
		return &File{Name: util.CleanFileName(fileHeader.Filename), MimeType: contentType(fileHeader), Size: fileHeader.Size}, nil
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:     util.CleanFileName(fileHeader.Filename),
		MimeType: contentType(fileHeader),
		Size:     fileHeader.Size,
		Data:     data,
	}, nil
}

func contentType(h *multipart.FileHeader) string {
	return h.Header.Get("Content-Type")
}

func statusFor(resp Response) int {
	if resp.Success {
		return http.StatusOK
	}
	switch resp.ErrorCode {
	case ErrorCodeNotAuthenticated:
		return http.StatusUnauthorized
	case ErrorCodeInsufficientCredits:
		return http.StatusPaymentRequired
	case ErrorCodeNoFile:
		return http.StatusBadRequest
	case ErrorCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorCodeUnsupportedType:
		return http.StatusUnsupportedMediaType
	case ErrorCodeExtractionFailed:
		return http.StatusUnprocessableEntity
	case ErrorCodeCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
