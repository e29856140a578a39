// Package capture rate-limits a continuous capture source into a bounded
// sequence of analysis submissions.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ErrNotReady is returned by a source that has no frame available yet.
// The pacer skips the tick instead of stopping.
var ErrNotReady = errors.New("capture source has no frame yet")

// Source produces an image snapshot on demand. The screen-image acquisition
// primitive itself is external; these implementations adapt common shapes of
// it (a file that is overwritten, a command that emits an image, a directory
// that receives files).
type Source interface {
	Snapshot(ctx context.Context) ([]byte, error)
}

// Frame is one captured image tagged with its capture time.
type Frame struct {
	Image      []byte
	CapturedAt time.Time
}

// FileSource reads the same path on every snapshot. Suits screenshot tools
// that overwrite a well-known file.
type FileSource struct {
	Path string
}

func (s *FileSource) Snapshot(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return data, nil
}

// CommandSource runs an external command and takes its stdout as the image.
type CommandSource struct {
	Name string
	Args []string
}

func (s *CommandSource) Snapshot(ctx context.Context) ([]byte, error) {
	out, err := exec.CommandContext(ctx, s.Name, s.Args...).Output()
	if err != nil {
		return nil, fmt.Errorf("capture command %s: %w", s.Name, err)
	}
	return out, nil
}
