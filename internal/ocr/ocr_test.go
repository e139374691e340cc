package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	seen   []bool
	stdout string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	_, statErr := os.Stat(args[0])
	f.seen = append(f.seen, statErr == nil)
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	return []byte(f.stdout), nil, nil
}

type countingProvider struct {
	inner    Provider
	acquired int
	closed   int
}

func (p *countingProvider) Acquire(ctx context.Context) (Engine, error) {
	e, err := p.inner.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	p.acquired++
	return &countingEngine{Engine: e, onClose: func() { p.closed++ }}, nil
}

type countingEngine struct {
	Engine
	onClose func()
}

func (e *countingEngine) Close() error {
	e.onClose()
	return e.Engine.Close()
}

type fakeRaster struct {
	calls int
	img   []byte
	err   error
}

func (f *fakeRaster) FirstPage(ctx context.Context, pdf []byte) ([]byte, error) {
	f.calls++
	return f.img, f.err
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestFromImageUsesFrenchModel(t *testing.T) {
	runner := &fakeRunner{stdout: "Jean Dupont\r\n\r\n\r\n\r\nDéveloppeur  Go\n"}
	provider := &countingProvider{inner: NewTesseractProvider(Config{}, runner)}
	adapter := NewAdapter(provider, &fakeRaster{})

	text, err := adapter.FromImage(context.Background(), pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "Jean Dupont\n\nDéveloppeur Go", text)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "tesseract", call[0])
	assert.Equal(t, []string{"stdout", "-l", "fra"}, call[2:5])
	assert.Equal(t, ".png", filepath.Ext(call[1]))
	assert.True(t, runner.seen[0], "input file should exist while the engine runs")

	assert.Equal(t, 1, provider.acquired)
	assert.Equal(t, 1, provider.closed)
	_, statErr := os.Stat(filepath.Dir(call[1]))
	assert.True(t, os.IsNotExist(statErr), "scratch dir should be removed on close")
}

func TestFromPDFRasterizesFirstPageOnly(t *testing.T) {
	runner := &fakeRunner{stdout: "Awa Camara"}
	raster := &fakeRaster{img: pngHeader}
	adapter := NewAdapter(NewTesseractProvider(Config{Language: "fra"}, runner), raster)

	text, err := adapter.FromPDF(context.Background(), []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "Awa Camara", text)
	assert.Equal(t, 1, raster.calls)
	assert.Len(t, runner.calls, 1)
}

func TestEngineFailureReleasesEngine(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	provider := &countingProvider{inner: NewTesseractProvider(Config{}, runner)}
	adapter := NewAdapter(provider, nil)

	_, err := adapter.FromImage(context.Background(), pngHeader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
	assert.Equal(t, 1, provider.closed)
}

func TestEmptyRecognitionIsAnError(t *testing.T) {
	runner := &fakeRunner{stdout: " \n\t\n"}
	adapter := NewAdapter(NewTesseractProvider(Config{}, runner), nil)

	_, err := adapter.FromImage(context.Background(), pngHeader)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestRasterFailureSkipsEngine(t *testing.T) {
	runner := &fakeRunner{stdout: "never"}
	provider := &countingProvider{inner: NewTesseractProvider(Config{}, runner)}
	adapter := NewAdapter(provider, &fakeRaster{err: errors.New("corrupt")})

	_, err := adapter.FromPDF(context.Background(), []byte("junk"))
	require.Error(t, err)
	assert.Equal(t, 0, provider.acquired)
	assert.Empty(t, runner.calls)
}

type panicEngine struct{}

func (panicEngine) Recognize(context.Context, []byte) (string, error) { panic("engine crashed") }
func (panicEngine) Close() error                                    { return nil }

type panicProvider struct{}

func (panicProvider) Acquire(context.Context) (Engine, error) { return panicEngine{}, nil }

func TestPanicBecomesError(t *testing.T) {
	adapter := NewAdapter(panicProvider{}, nil)
	_, err := adapter.FromImage(context.Background(), pngHeader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine crashed")
}

func TestNormalize(t *testing.T) {
	in := "Jean\t\tDupont\r\n-----\r\n\n\n\n+224 620 00 00 00   \f"
	assert.Equal(t, "Jean Dupont\n\n+224 620 00 00 00", Normalize(in))
}
