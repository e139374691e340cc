package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// Config controls the tesseract engine.
type Config struct {
	Tesseract   string // binary name or absolute path; "tesseract" when empty
	Language    string // traineddata name; "fra" when empty
	TessdataDir string
	PSM         int
}

// DefaultLanguage is the tesseract model used for résumés in this deployment.
const DefaultLanguage = "fra"

// TesseractProvider hands out tesseract engines, each owning a scratch directory.
type TesseractProvider struct {
	cfg    Config
	runner Runner
}

// NewTesseractProvider builds a provider. A nil runner uses ExecRunner.
func NewTesseractProvider(cfg Config, runner Runner) *TesseractProvider {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &TesseractProvider{cfg: cfg, runner: runner}
}

// Acquire creates an engine. Callers must Close it.
func (p *TesseractProvider) Acquire(ctx context.Context) (Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "resume-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("ocr scratch dir: %w", err)
	}
	return &tesseractEngine{cfg: p.cfg, runner: p.runner, dir: dir}, nil
}

type tesseractEngine struct {
	cfg    Config
	runner Runner

	mu     sync.Mutex
	dir    string
	seq    int
	closed bool
}

var errEngineClosed = errors.New("ocr engine closed")

func (e *tesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", errors.New("ocr: empty image")
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", errEngineClosed
	}
	e.seq++
	path := filepath.Join(e.dir, fmt.Sprintf("input-%d%s", e.seq, mimetype.Detect(image).Extension()))
	e.mu.Unlock()

	if err := os.WriteFile(path, image, 0o600); err != nil {
		return "", fmt.Errorf("ocr write input: %w", err)
	}

	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

func (e *tesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return os.RemoveAll(e.dir)
}
