package extract

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"filing-backend/internal/shared/telemetry"
)

// Runner executes an external command; tests replace it with a stub.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	fields := map[string]any{
		"cmd":         name,
		"args":        strings.Join(args, " "),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["err"] = err
		fields["stderr"] = truncate(errb.String(), 8<<10)
		telemetry.Error("extract.exec.failed", fields)
	} else {
		fields["stdout_bytes"] = out.Len()
		telemetry.Info("extract.exec.ok", fields)
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
