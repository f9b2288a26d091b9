// Package codegen runs an external echoprint-codegen compatible program as
// a fingerprint.Generator.
//
// The program receives the captured samples as raw little-endian signed
// 16-bit PCM on stdin and prints the code on stdout, either as bare text or
// as the JSON emitted by echoprint-codegen ([{"code": "..."}]). The sample
// rate and channel count are passed in ECHOPRINT_SAMPLE_RATE and
// ECHOPRINT_CHANNELS.
package codegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/haivivi/echoprint/go/pkg/audio/pcm"
	"github.com/haivivi/echoprint/go/pkg/fingerprint"
)

// DefaultTimeout bounds a generation when Command.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Command is a fingerprint.Generator backed by an external program.
type Command struct {
	// Path is the program to run. Resolved through PATH if it has no
	// separator.
	Path string

	Args []string

	// Timeout kills the program after this long. Zero means DefaultTimeout.
	Timeout time.Duration

	// Format describes the samples. Zero value is pcm.L16Mono11K.
	Format pcm.Format

	// Logger receives the program's stderr on failure. Nil means
	// slog.Default().
	Logger *slog.Logger
}

var _ fingerprint.Generator = (*Command)(nil)

// Generate implements fingerprint.Generator.
func (c *Command) Generate(samples []int16, n int) fingerprint.Result {
	code, err := c.Run(context.Background(), samples[:min(n, len(samples))])
	if err != nil {
		return fingerprint.Failed(err)
	}
	return fingerprint.Succeeded(code)
}

// Run executes the program on samples and returns the trimmed code. An empty
// code is returned without error.
func (c *Command) Run(ctx context.Context, samples []int16) (string, error) {
	if c.Path == "" {
		return "", errors.New("codegen: Command.Path is required")
	}
	if !c.Format.Valid() {
		return "", fmt.Errorf("codegen: invalid format %d", int(c.Format))
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = bytes.NewReader(pcm.EncodeLE(samples))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(),
		"ECHOPRINT_SAMPLE_RATE="+strconv.Itoa(c.Format.SampleRate()),
		"ECHOPRINT_CHANNELS="+strconv.Itoa(c.Format.Channels()),
	)

	start := time.Now()
	err := cmd.Run()
	logger := c.logger()
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("codegen: %s timed out after %s", c.Path, timeout)
		} else {
			err = fmt.Errorf("codegen: %s: %w", c.Path, err)
		}
		logger.Warn("codegen: program failed", "path", c.Path, "err", err, "stderr", strings.TrimSpace(stderr.String()))
		return "", err
	}
	logger.Debug("codegen: program done", "path", c.Path, "samples", len(samples), "elapsed", time.Since(start))
	return ParseOutput(stdout.Bytes())
}

func (c *Command) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

type codegenResult struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// ParseOutput extracts the code from program output. JSON output, either a
// single object or the array echoprint-codegen prints, uses the first
// element's "code" field. Anything else is taken as the code itself.
func ParseOutput(out []byte) (string, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return "", nil
	}

	var res codegenResult
	switch out[0] {
	case '[':
		var list []codegenResult
		if err := json.Unmarshal(out, &list); err != nil {
			return "", fmt.Errorf("codegen: decode output: %w", err)
		}
		if len(list) == 0 {
			return "", nil
		}
		res = list[0]
	case '{':
		if err := json.Unmarshal(out, &res); err != nil {
			return "", fmt.Errorf("codegen: decode output: %w", err)
		}
	default:
		return string(out), nil
	}
	if res.Error != "" {
		return "", fmt.Errorf("codegen: %s", res.Error)
	}
	return strings.TrimSpace(res.Code), nil
}
