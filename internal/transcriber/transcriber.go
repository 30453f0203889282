// Package transcriber drives the external transcription tool for one
// job at a time and reduces its live output to job state.
package transcriber

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/openscribe/openscribe/pkg/jobstore"
)

var (
	// progressPattern matches tool progress lines such as "  42%".
	progressPattern = regexp.MustCompile(`^\s*(\d+)%`)

	// durationPattern matches the tool's completion line, e.g.
	// "Operation finished in: 0:01:23.456".
	durationPattern = regexp.MustCompile(`Operation finished in:\s+(\d+:\d{2}:\d{2}\.\d{3})`)
)

// Config is the static invocation configuration. Everything on the
// command line comes from here, never from per-request input, so
// user-controlled filenames cannot inject arguments.
type Config struct {
	ExecutablePath      string
	Model               string
	Language            string
	AdditionalArguments []string
	OutputFormats       []string
}

// Transcriber runs the external tool per job with the job's request
// directory as working directory.
type Transcriber struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Transcriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transcriber{cfg: cfg, logger: logger}
}

// Run processes one job to a terminal state. Every failure is captured
// into the job record; nothing propagates to the calling worker.
//
// A started tool always runs until it exits on its own. There is no
// kill or timeout path: shutdown waits for in-flight jobs rather than
// interrupting them, so the context is deliberately not threaded into
// the process.
func (t *Transcriber) Run(_ context.Context, job *jobstore.Job) {
	if err := t.run(job); err != nil {
		t.logger.Warn("transcription failed",
			zap.String("job_id", job.ID()),
			zap.Error(err))
		job.Fail(err.Error())
	}
}

func (t *Transcriber) run(job *jobstore.Job) error {
	inputPath := filepath.Join(job.RequestDir(), job.FileName())

	args := buildArgs(inputPath, t.cfg)
	cmd := exec.Command(t.cfg.ExecutablePath, args...)
	cmd.Dir = job.RequestDir()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start transcriber: %w", err)
	}

	t.logger.Debug("transcriber started",
		zap.String("job_id", job.ID()),
		zap.String("executable", t.cfg.ExecutablePath),
		zap.Strings("args", args))

	// Drain stdout to end-of-stream before waiting for exit; the reader
	// and the running process progress concurrently.
	drained := make(chan error, 1)
	go func() {
		drained <- t.scanOutput(job, stdout)
	}()

	scanErr := <-drained
	waitErr := cmd.Wait()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				return fmt.Errorf("transcriber exited with code %d: %s", exitErr.ExitCode(), msg)
			}
			return fmt.Errorf("transcriber exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("wait for transcriber: %w", waitErr)
	}
	if scanErr != nil {
		return fmt.Errorf("read transcriber output: %w", scanErr)
	}

	outputs, err := t.collectOutputs(job)
	if err != nil {
		return err
	}
	if len(outputs) == 0 {
		return errors.New("no output files found after processing")
	}

	job.Complete(outputs)
	return nil
}

// scanOutput reads stdout line by line until end-of-stream, feeding
// progress and duration into the job record.
func (t *Transcriber) scanOutput(job *jobstore.Job, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		consumeLine(job, scanner.Text())
	}
	return scanner.Err()
}

// consumeLine tests one stdout line against the progress and duration
// patterns. Lines matching neither are ignored.
func consumeLine(job *jobstore.Job, line string) {
	if m := progressPattern.FindStringSubmatch(line); m != nil {
		if p, err := strconv.Atoi(m[1]); err == nil {
			job.SetProgress(p)
		}
		return
	}
	if m := durationPattern.FindStringSubmatch(line); m != nil {
		job.SetDuration(m[1])
	}
}

// collectOutputs reads every requested output file the tool produced.
// Formats the tool did not write are simply absent from the result.
func (t *Transcriber) collectOutputs(job *jobstore.Job) (map[string]string, error) {
	base := baseName(job.FileName())
	outputs := make(map[string]string)

	for _, format := range t.cfg.OutputFormats {
		path := filepath.Join(job.RequestDir(), base+"."+format)
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read output %s: %w", filepath.Base(path), err)
		}
		outputs[format] = string(content)
	}
	return outputs, nil
}

// buildArgs assembles the tool command line:
//
//	<input> -pp -o source -f <formats...> -m <model> [-l <language>] [extras...]
func buildArgs(inputPath string, cfg Config) []string {
	args := []string{inputPath, "-pp", "-o", "source", "-f"}
	args = append(args, cfg.OutputFormats...)
	args = append(args, "-m", cfg.Model)

	if lang := normalizeLanguage(cfg.Language); lang != "" {
		args = append(args, "-l", lang)
	}

	args = append(args, cfg.AdditionalArguments...)
	return args
}

// normalizeLanguage maps "auto" and empty language to no CLI override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}

// baseName strips the extension from an uploaded file name; the tool
// names its output files after it.
func baseName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
