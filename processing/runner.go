package processing

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/zeebo/errs"
)

// Error is the class of every processing failure
var Error = errs.Class("processing")

const (
	ExtractTimeout = 10 * time.Second
	FrameTimeout   = 10 * time.Second
)

// Runner runs external tools. A zero timeout means no limit.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error)
}

// ExecRunner runs the tools found in PATH
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, Error.New("%s timed out after %v", name, timeout)
		}
		return nil, Error.New("%s failed: %v: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
