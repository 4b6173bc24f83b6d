package pandoc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/kreuzberg-go/core"
)

const (
	defaultTimeout    = 60 * time.Second
	minSupportedMajor = 2
)

// versionPatterns handles the several ways `pandoc --version` formats its
// first line across Windows, Linux, and portable builds.
var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)pandoc\.exe\s+(\d+)`),
	regexp.MustCompile(`(?i)pandoc\s+(\d+)`),
	regexp.MustCompile(`(?i)pandoc\s+v?(\d+)`),
}

var (
	versionOnce sync.Once
	versionErr  error
	binaryPath  = "pandoc"
)

// ensureVersion runs "pandoc --version" once per process and requires
// major version >= 2, caching the result in a process-wide flag.
func ensureVersion(ctx context.Context) error {
	versionOnce.Do(func() {
		cmd := exec.CommandContext(ctx, binaryPath, "--version")
		out, err := cmd.Output()
		if err != nil {
			versionErr = core.NewMissingDependencyError(
				"pandoc binary not found or not runnable",
				core.NewErrorContext("pandoc_version_gate", core.WithCause(err)))
			return
		}

		var major int
		found := false
		for _, pattern := range versionPatterns {
			if match := pattern.FindStringSubmatch(string(out)); match != nil {
				if n, convErr := strconv.Atoi(match[1]); convErr == nil {
					major, found = n, true
					break
				}
			}
		}
		if !found {
			versionErr = core.NewMissingDependencyError(
				"could not parse pandoc --version output",
				core.NewErrorContext("pandoc_version_gate", core.WithExtra("output", string(out))))
			return
		}
		if major < minSupportedMajor {
			versionErr = core.NewMissingDependencyError(
				fmt.Sprintf("pandoc major version %d is below the required minimum of %d", major, minSupportedMajor),
				core.NewErrorContext("pandoc_version_gate"))
		}
	})
	return versionErr
}

// convert invokes pandoc twice: once producing the JSON AST (for
// metadata), once producing Markdown (for content). Both outputs are
// written to temp files and read back, matching the tesseract bridge's
// spill-to-temp-file pattern.
func convert(ctx context.Context, data []byte, format string) (astJSON []byte, markdown string, err error) {
	if err := ensureVersion(ctx); err != nil {
		return nil, "", err
	}

	inputPath, cleanup, err := spillToTemp(data, "kreuzberg-pandoc-in-*")
	if err != nil {
		return nil, "", core.NewParsingError("spilling input to temp file",
			core.NewErrorContext("pandoc_extract", core.WithCause(err)))
	}
	defer cleanup()

	astJSON, err = runPandoc(ctx, inputPath, format, "json", nil)
	if err != nil {
		return nil, "", err
	}

	mdBytes, err := runPandoc(ctx, inputPath, format, "markdown", []string{"--wrap=preserve"})
	if err != nil {
		return nil, "", err
	}

	return astJSON, string(mdBytes), nil
}

// extractMedia invokes pandoc a third time with --extract-media and
// returns the directory its images were written to. Callers are
// responsible for removing the directory.
func extractMedia(ctx context.Context, data []byte, format string) (string, func(), error) {
	if err := ensureVersion(ctx); err != nil {
		return "", func() {}, err
	}

	inputPath, cleanupInput, err := spillToTemp(data, "kreuzberg-pandoc-media-in-*")
	if err != nil {
		return "", func() {}, err
	}
	defer cleanupInput()

	mediaDir := filepath.Join(os.TempDir(), "kreuzberg-pandoc-media-"+uuid.NewString())
	if err := os.Mkdir(mediaDir, 0o755); err != nil {
		return "", func() {}, err
	}
	cleanup := func() { os.RemoveAll(mediaDir) }

	outPath := filepath.Join(os.TempDir(), "kreuzberg-pandoc-out-"+uuid.NewString()+".md")
	defer os.Remove(outPath)

	args := []string{"--from=" + format, "--to=markdown", "--extract-media=" + mediaDir, "-o", outPath, inputPath}
	cmd := exec.CommandContext(ctx, binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cleanup()
		return "", func() {}, core.NewMissingDependencyError(
			"pandoc media extraction failed",
			core.NewErrorContext("pandoc_extract_media", core.WithCause(err), core.WithExtra("stderr", stderr.String())))
	}

	return mediaDir, cleanup, nil
}

func runPandoc(ctx context.Context, inputPath, fromFormat, toFormat string, extraArgs []string) ([]byte, error) {
	outPath := filepath.Join(os.TempDir(), "kreuzberg-pandoc-out-"+uuid.NewString())
	defer os.Remove(outPath)

	args := append([]string{"--from=" + fromFormat, "--to=" + toFormat, "-o", outPath, inputPath}, extraArgs...)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, core.NewParsingError(
			fmt.Sprintf("pandoc --to=%s exited with an error", toFormat),
			core.NewErrorContext("pandoc_extract", core.WithCause(err), core.WithExtra("stderr", stderr.String())))
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, core.NewParsingError("reading pandoc output file",
			core.NewErrorContext("pandoc_extract", core.WithCause(err)))
	}
	return out, nil
}

func spillToTemp(data []byte, pattern string) (string, func(), error) {
	f, err := os.CreateTemp(os.TempDir(), pattern)
	if err != nil {
		return "", func() {}, err
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", func() {}, err
	}
	f.Close()
	return path, func() { os.Remove(path) }, nil
}
