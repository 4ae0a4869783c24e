package filecmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pypeit/pypeitfile/internal/export"
	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// NewFramesCmd creates the frames command
func NewFramesCmd() *cobra.Command {
	var frameType string
	var calib int
	var target string
	var format string
	var limit int

	cmd := &cobra.Command{
		Use:   "frames FILE",
		Short: "List the frames of a reduction file",
		Long: `List the active (not commented-out) frames of a reduction file, optionally
filtered by frame type, calibration group or target.`,
		Example: `  # All science frames
  pypeitfile frames keck_mosfire_A.pypeit --type science

  # Frames used by calibration group 1, as CSV
  pypeitfile frames keck_mosfire_A.pypeit --calib 1 --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if frameType != "" && !pypeit.FrameType(frameType).Known() {
				return fmt.Errorf("unknown frame type: %s", frameType)
			}
			q := frameQuery{frameType: pypeit.FrameType(frameType), target: target, limit: limit}
			if cmd.Flags().Changed("calib") {
				q.calib = &calib
			}
			frames, err := loadFrames(args[0], q)
			if err != nil {
				return fmt.Errorf("failed to load frames: %w", err)
			}
			return executeFrames(cmd.OutOrStdout(), format, frames)
		},
	}

	cmd.Flags().StringVar(&frameType, "type", "", "Only frames of this frame type")
	cmd.Flags().IntVar(&calib, "calib", 0, "Only frames in this calibration group")
	cmd.Flags().StringVar(&target, "target", "", "Only frames of this target")
	cmd.Flags().StringVar(&format, "format", export.FormatText, "Output format (text, json, csv, yaml)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of frames to list (0 for all)")

	return cmd
}

// frameQuery selects frames; zero fields match everything.
type frameQuery struct {
	frameType pypeit.FrameType
	calib     *int
	target    string
	limit     int
}

func (q frameQuery) filtered() bool {
	return q.frameType != "" || q.calib != nil || q.target != ""
}

func (q frameQuery) match(fr *pypeit.Frame) bool {
	if q.frameType != "" && !fr.Is(q.frameType) {
		return false
	}
	if q.calib != nil && !fr.InCalib(*q.calib) {
		return false
	}
	return q.target == "" || fr.Target == q.target
}

func loadFrames(path string, q frameQuery) ([]pypeit.Frame, error) {
	loader := pypeit.NewLoader(path)
	if !q.filtered() {
		limit := q.limit
		if limit <= 0 {
			limit = -1
		}
		return loader.LoadSample(limit)
	}

	frames, err := loader.LoadWithFilter(q.match)
	if err != nil {
		return nil, err
	}
	if q.limit > 0 && len(frames) > q.limit {
		frames = frames[:q.limit]
	}
	return frames, nil
}

func executeFrames(w io.Writer, format string, frames []pypeit.Frame) error {
	return export.WriteFrames(w, format, frames)
}
