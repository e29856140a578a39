package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user20357/screensage-cloud/internal/capture"
	"github.com/user20357/screensage-cloud/internal/output"
	"github.com/user20357/screensage-cloud/internal/project"
	"github.com/user20357/screensage-cloud/internal/stream"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream captures to the backend and emit analysis events as JSONL",
	Long: `Continuously capture screen images, submit them over the realtime channel,
and emit one JSON line per analysis result to stdout.

Captures are paced on a fixed interval; a tick that fires while a previous
capture is still being analyzed is skipped, never queued. If the channel
drops, captures are reported as dropped until the command exits.

Capture sources (first match wins):
  --file     re-read one image path every tick
  --command  run a command and take its stdout as the image
  --dir      watch a directory for newly written images

Output is always JSONL regardless of the --format flag.

Use Ctrl+C or --duration to stop watching.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("file", "", "Image file to re-read on every tick")
	watchCmd.Flags().String("command", "", "Capture command; stdout is the image")
	watchCmd.Flags().String("dir", "", "Directory to watch for new images")
	watchCmd.Flags().Int("interval", 2000, "Capture interval in milliseconds")
	watchCmd.Flags().Int("duration", 0, "Max seconds to watch (0 = until Ctrl+C)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	source, cleanup, err := captureSource(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	intervalMs, _ := cmd.Flags().GetInt("interval")
	durationSec, _ := cmd.Flags().GetInt("duration")
	interval := time.Duration(intervalMs) * time.Millisecond

	logger := log.New(os.Stderr, "watch: ", log.LstdFlags)
	coordinator := stream.New(cfg.WSURL, logger)
	if err := coordinator.Connect(cmd.Context()); err != nil {
		return err
	}
	defer coordinator.Close()

	pacer := capture.NewPacer(source, coordinator, interval)
	pacer.OnDrop = func(err error) {
		emit(map[string]interface{}{
			"type":  "dropped",
			"ts":    time.Now().Unix(),
			"state": string(coordinator.State()),
			"error": err.Error(),
		})
	}

	emit(map[string]interface{}{
		"type":     "start",
		"ts":       time.Now().Unix(),
		"interval": interval.String(),
		"state":    string(coordinator.State()),
	})

	pacer.Start(cmd.Context())
	defer pacer.Stop()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	var deadline <-chan time.Time
	if durationSec > 0 {
		deadline = time.After(time.Duration(durationSec) * time.Second)
	}

	start := time.Now()
	events := 0

loop:
	for {
		select {
		case result := <-coordinator.Results():
			events++
			if result.Err != nil {
				emit(map[string]interface{}{
					"type":  "analysis_error",
					"ts":    time.Now().Unix(),
					"error": result.Err.Error(),
				})
				continue
			}
			emit(map[string]interface{}{
				"type":        "analysis",
				"ts":          time.Now().Unix(),
				"captured_at": result.CapturedAt.Format(time.RFC3339Nano),
				"summary":     project.Summarize(result.Analysis),
				"suggestions": project.Suggestions(result.Analysis),
			})
		case <-pacer.Done():
			// Snapshot acquisition failed; fatal to this session.
			break loop
		case <-sigs:
			break loop
		case <-deadline:
			break loop
		case <-cmd.Context().Done():
			break loop
		}
	}

	pacer.Stop()
	doneEvent := map[string]interface{}{
		"type":    "done",
		"ts":      time.Now().Unix(),
		"elapsed": fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
		"events":  events,
	}
	if err := pacer.Err(); err != nil {
		doneEvent["error"] = err.Error()
	}
	emit(doneEvent)

	return pacer.Err()
}

// captureSource builds a Source from flags, falling back to the config file.
func captureSource(cmd *cobra.Command) (capture.Source, func(), error) {
	file, _ := cmd.Flags().GetString("file")
	command, _ := cmd.Flags().GetString("command")
	dir, _ := cmd.Flags().GetString("dir")

	if file == "" {
		file = cfg.CaptureFile
	}
	if command == "" {
		command = cfg.CaptureCommand
	}
	if dir == "" {
		dir = cfg.CaptureDir
	}

	noop := func() {}
	switch {
	case file != "":
		return &capture.FileSource{Path: file}, noop, nil
	case command != "":
		parts := strings.Fields(command)
		return &capture.CommandSource{Name: parts[0], Args: parts[1:]}, noop, nil
	case dir != "":
		source, err := capture.NewDirSource(dir)
		if err != nil {
			return nil, nil, err
		}
		return source, func() { source.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("a capture source is required: --file, --command, or --dir")
	}
}

func emit(event map[string]interface{}) {
	output.EncodeJSONL(os.Stdout, event)
}
