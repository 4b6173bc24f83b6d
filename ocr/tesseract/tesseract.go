// Package tesseract implements ocr.Engine over the external tesseract
// binary via os/exec (spec §4.4). It never links Tesseract in-process:
// every call writes an input image, shells out, and reads back a text
// file, because the host's tesseract is a separate, independently
// versioned process that may not even share the machine's libc.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/ocr"
)

const (
	defaultTimeout    = 30 * time.Second
	minSupportedMajor = 5
)

// Engine shells out to the tesseract binary for each recognition request.
type Engine struct {
	// BinaryPath is the tesseract executable to invoke; defaults to
	// "tesseract" resolved via PATH.
	BinaryPath string
	// Timeout bounds a single recognition call; defaults to 30s.
	Timeout time.Duration

	versionOnce sync.Once
	versionErr  error
}

// NewEngine constructs a tesseract-backed Engine with default settings.
func NewEngine() *Engine {
	return &Engine{BinaryPath: "tesseract", Timeout: defaultTimeout}
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) binary() string {
	if e.BinaryPath != "" {
		return e.BinaryPath
	}
	return "tesseract"
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return defaultTimeout
}

var versionPattern = regexp.MustCompile(`(?i)tesseract\s+v?(\d+)`)

// ensureVersion runs "tesseract --version" once per Engine value and
// requires major version >= 5 (spec §4.4). The result is cached for the
// Engine's lifetime.
func (e *Engine) ensureVersion(ctx context.Context) error {
	e.versionOnce.Do(func() {
		cmd := exec.CommandContext(ctx, e.binary(), "--version")
		out, err := cmd.Output()
		if err != nil {
			e.versionErr = core.NewMissingDependencyError(
				"tesseract binary not found or not runnable",
				core.NewErrorContext("ocr_version_gate", core.WithCause(err)))
			return
		}
		match := versionPattern.FindStringSubmatch(string(out))
		if match == nil {
			e.versionErr = core.NewMissingDependencyError(
				"could not parse tesseract --version output",
				core.NewErrorContext("ocr_version_gate", core.WithExtra("output", string(out))))
			return
		}
		major, err := strconv.Atoi(match[1])
		if err != nil || major < minSupportedMajor {
			e.versionErr = core.NewMissingDependencyError(
				fmt.Sprintf("tesseract major version %s is below the required minimum of %d", match[1], minSupportedMajor),
				core.NewErrorContext("ocr_version_gate"))
		}
	})
	return e.versionErr
}

// Recognize implements ocr.Engine by shelling out to tesseract per spec
// §4.4's numbered procedure: spill the input to a temp file, build the
// command line, run with a per-call timeout, read the output text file,
// and remove every temp file regardless of outcome.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := e.ensureVersion(ctx); err != nil {
		return ocr.Result{}, err
	}
	for _, lang := range in.Languages {
		if err := ocr.ValidateLanguage(lang); err != nil {
			return ocr.Result{}, err
		}
	}

	inputPath, cleanupInput, err := e.resolveInputPath(in)
	if err != nil {
		return ocr.Result{}, err
	}
	defer cleanupInput()

	outputBase := filepath.Join(os.TempDir(), "kreuzberg-ocr-"+uuid.NewString())
	defer os.Remove(outputBase + ".txt")

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	args := buildArgs(inputPath, outputBase, in)
	cmd := exec.CommandContext(ctx, e.binary(), args...)
	if runtime.GOOS == "linux" {
		cmd.Env = append(os.Environ(), "OMP_THREAD_LIMIT=1")
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ocr.Result{}, core.NewOCRError(
			"tesseract exited with an error",
			core.NewErrorContext("ocr_recognize", core.WithCause(err), core.WithExtra("stderr", stderr.String())))
	}

	text, err := os.ReadFile(outputBase + ".txt")
	if err != nil {
		return ocr.Result{}, core.NewOCRError(
			"reading tesseract output file",
			core.NewErrorContext("ocr_recognize", core.WithCause(err)))
	}

	return ocr.Result{
		InputID:   in.ID,
		PlainText: normalizeWhitespace(string(text)),
		Language:  firstLanguage(in.Languages),
	}, nil
}

// resolveInputPath returns a path tesseract can read: in.Path if already
// set, else in.Image spilled to a temp file named with an extension
// matching in.Format. The returned cleanup removes any temp file created
// here; it is a no-op when in.Path was used directly.
func (e *Engine) resolveInputPath(in ocr.Input) (string, func(), error) {
	if in.Path != "" {
		return in.Path, func() {}, nil
	}
	ext := in.Format
	if ext == "" {
		ext = "png"
	}
	path := filepath.Join(os.TempDir(), "kreuzberg-ocr-in-"+uuid.NewString()+"."+ext)
	if err := os.WriteFile(path, in.Image, 0o600); err != nil {
		return "", func() {}, core.NewOCRError(
			"writing temp image for OCR",
			core.NewErrorContext("ocr_recognize", core.WithCause(err)))
	}
	return path, func() { os.Remove(path) }, nil
}

func buildArgs(inputPath, outputBase string, in ocr.Input) []string {
	lang := strings.Join(in.Languages, "+")
	if lang == "" {
		lang = "eng"
	}
	psm := in.PSM
	if psm == 0 {
		psm = 3
	}

	args := []string{inputPath, outputBase, "-l", lang, "--psm", strconv.Itoa(psm), "--oem", "1", "--loglevel", "OFF"}

	flagNames := make([]string, 0, len(in.ConfigFlags))
	for name := range in.ConfigFlags {
		flagNames = append(flagNames, name)
	}
	sortStrings(flagNames)
	for _, name := range flagNames {
		value := "0"
		if in.ConfigFlags[name] {
			value = "1"
		}
		args = append(args, "-c", name+"="+value)
	}
	return args
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

var (
	whitespaceRun = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRun  = regexp.MustCompile(`[ \t]*\n\s*\n\s*\n+`)
)

func normalizeWhitespace(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = blankLineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func firstLanguage(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}
