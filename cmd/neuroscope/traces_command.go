package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"neuroscope/internal/extractor"
	"neuroscope/internal/neuroscope"
)

type traceBlock struct {
	Channels []int     `json:"channels" yaml:"channels"`
	Start    int64     `json:"start_frame" yaml:"start_frame"`
	End      int64     `json:"end_frame" yaml:"end_frame"`
	Traces   [][]int32 `json:"traces" yaml:"traces"`
}

func newTracesCommand(ctx *commandContext) *cobra.Command {
	var channels []int
	var start int64
	var count int64

	cmd := &cobra.Command{
		Use:   "traces <folder>",
		Short: "Print raw samples from the session .dat file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if start < 0 {
				return fmt.Errorf("--start must be >= 0")
			}
			if count < 0 {
				return fmt.Errorf("--count must be >= 0")
			}
			opts, err := ctx.facadeOptions()
			if err != nil {
				return err
			}
			rec, err := neuroscope.OpenRecording(args[0], opts...)
			if err != nil {
				return err
			}
			defer rec.Close()

			end := rec.NumFrames()
			if count > 0 {
				end = min(start+count, end)
			}
			traces, err := rec.Traces(channels, extractor.Frames(start, end))
			if err != nil {
				return err
			}
			block := traceBlock{Channels: channels, Start: start, End: end, Traces: traces}
			if len(block.Channels) == 0 {
				block.Channels = rec.ChannelIDs()
			}
			return ctx.render(cmd, block, func(w io.Writer) error {
				headers, rows := traceTable(block)
				aligns := make([]columnAlignment, len(headers))
				for i := range aligns {
					aligns[i] = alignRight
				}
				return writeTable(w, headers, rows, aligns)
			})
		},
	}
	cmd.Flags().IntSliceVar(&channels, "channels", nil, "Channel ids to print (default all)")
	cmd.Flags().Int64Var(&start, "start", 0, "First frame")
	cmd.Flags().Int64Var(&count, "count", 10, "Number of frames (0 reads through the end)")
	return cmd
}

// traceTable lays a channel-major block out with one row per frame.
func traceTable(block traceBlock) ([]string, [][]string) {
	headers := make([]string, 0, len(block.Channels)+1)
	headers = append(headers, "Frame")
	for _, ch := range block.Channels {
		headers = append(headers, "ch"+strconv.Itoa(ch))
	}
	frames := 0
	if len(block.Traces) > 0 {
		frames = len(block.Traces[0])
	}
	rows := make([][]string, frames)
	for f := 0; f < frames; f++ {
		row := make([]string, 0, len(headers))
		row = append(row, strconv.FormatInt(block.Start+int64(f), 10))
		for c := range block.Traces {
			row = append(row, strconv.FormatInt(int64(block.Traces[c][f]), 10))
		}
		rows[f] = row
	}
	return headers, rows
}
