package parsing

import (
	"context"
	"errors"
	"strings"
)

const (
	ErrorCodeNotAuthenticated    = "NOT_AUTHENTICATED"
	ErrorCodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	ErrorCodeNoFile              = "NO_FILE"
	ErrorCodeFileTooLarge        = "FILE_TOO_LARGE"
	ErrorCodeUnsupportedType     = "UNSUPPORTED_FILE_TYPE"
	ErrorCodeExtractionFailed    = "EXTRACTION_FAILED"
	ErrorCodeCanceled            = "CANCELED"
	ErrorCodeInternal            = "INTERNAL_ERROR"
)

const (
	msgNotAuthenticated = "authentication required"
	msgNoFile           = "no file provided"
	msgFileTooLarge     = "file exceeds the 10 MB limit"
	msgUnsupportedType  = "unsupported file type: accepted types are pdf, docx, jpg, jpeg and png"
	msgCanceled         = "parse canceled"
	msgInternal         = "an unexpected error occurred while parsing the document"
	msgNoText           = "no text could be extracted from the document"
)

func classifyContextErr(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeCanceled, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(msg string) string {
	msg = strings.ReplaceAll(msg, "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
