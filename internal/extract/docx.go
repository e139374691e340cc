package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"code.sajari.com/docconv"
)

// DocumentText returns the raw text of a DOCX file. No layout pass is applied.
func DocumentText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	res, err := docconv.Convert(bytes.NewReader(data), mimeDOCX, false)
	if err != nil {
		return "", fmt.Errorf("docx: %w", err)
	}
	return res.Body, nil
}
