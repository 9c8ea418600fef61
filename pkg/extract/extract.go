// Package extract turns uploaded documents into plain text by shelling out to
// the standard command-line converters (pdftotext, tesseract, antiword, docx2txt).
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/pkg/config"
)

var (
	// ErrUnsupportedFormat is returned for extensions no converter handles.
	ErrUnsupportedFormat = errors.New("extract: unsupported file format")
	// ErrToolMissing is returned when the converter binary is not installed.
	ErrToolMissing = errors.New("extract: converter not installed")
)

const (
	EnginePDFToText = "pdftotext"
	EngineTesseract = "tesseract"
	EngineAntiword  = "antiword"
	EngineDocx2Txt  = "docx2txt"
	EnginePlainText = "plaintext"
)

// Result is the text pulled out of one file.
type Result struct {
	Text   string
	Engine string
	Pages  int
}

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Observer records extraction timings.
type Observer interface {
	ObserveExtraction(engine, outcome string, duration time.Duration)
}

// ExecRunner runs commands through os/exec and folds stderr into the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Extractor dispatches files to the converter for their extension.
type Extractor struct {
	cfg      config.ExtractConfig
	run      Runner
	observer Observer
	logger   *zap.Logger
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.run = r }
}

// WithObserver reports each extraction to o.
func WithObserver(o Observer) Option {
	return func(e *Extractor) { e.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an Extractor. Empty binary names fall back to the tool's usual name.
func New(cfg config.ExtractConfig, opts ...Option) *Extractor {
	if cfg.PDFToText == "" {
		cfg.PDFToText = EnginePDFToText
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = EngineTesseract
	}
	if cfg.Antiword == "" {
		cfg.Antiword = EngineAntiword
	}
	if cfg.Docx2Txt == "" {
		cfg.Docx2Txt = EngineDocx2Txt
	}
	e := &Extractor{cfg: cfg, run: ExecRunner, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supported reports whether filename has an extension the extractor handles.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".doc", ".docx", ".txt", ".md",
		".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif":
		return true
	}
	return false
}

// ExtractFile extracts the text of the file at path.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (Result, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := e.dispatch(ctx, path)
	if e.observer != nil {
		engine := res.Engine
		if engine == "" {
			engine = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		}
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		e.observer.ObserveExtraction(engine, outcome, time.Since(start))
	}
	if err != nil {
		return Result{}, err
	}
	res.Text = strings.TrimSpace(res.Text)
	return res, nil
}

func (e *Extractor) dispatch(ctx context.Context, path string) (Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.pdf(ctx, path)
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif":
		out, err := e.invoke(ctx, e.cfg.Tesseract, path, "stdout")
		return Result{Text: string(out), Engine: EngineTesseract, Pages: 1}, err
	case ".doc":
		out, err := e.invoke(ctx, e.cfg.Antiword, path)
		return Result{Text: string(out), Engine: EngineAntiword, Pages: pageCount(out)}, err
	case ".docx":
		out, err := e.invoke(ctx, e.cfg.Docx2Txt, path, "-")
		return Result{Text: string(out), Engine: EngineDocx2Txt, Pages: 1}, err
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		return Result{Text: string(data), Engine: EnginePlainText, Pages: 1}, nil
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// pdf tries layout-preserving extraction first and retries with the plain invocation.
func (e *Extractor) pdf(ctx context.Context, path string) (Result, error) {
	out, err := e.invoke(ctx, e.cfg.PDFToText, "-layout", path, "-")
	if err != nil {
		if errors.Is(err, ErrToolMissing) || ctx.Err() != nil {
			return Result{Engine: EnginePDFToText}, err
		}
		e.logger.Warn("pdftotext -layout failed, retrying plain", zap.String("file", filepath.Base(path)), zap.Error(err))
		out, err = e.invoke(ctx, e.cfg.PDFToText, path, "-")
		if err != nil {
			return Result{Engine: EnginePDFToText}, err
		}
	}
	return Result{Text: string(out), Engine: EnginePDFToText, Pages: pageCount(out)}, nil
}

func (e *Extractor) invoke(ctx context.Context, bin string, args ...string) ([]byte, error) {
	out, err := e.run(ctx, bin, args...)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrToolMissing, bin)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", bin, ctxErr)
	}
	return nil, err
}

// pageCount counts form feeds, which pdftotext and antiword emit between pages.
func pageCount(out []byte) int {
	text := bytes.TrimRight(out, "\f\n ")
	if len(text) == 0 {
		return 0
	}
	return bytes.Count(text, []byte{'\f'}) + 1
}
