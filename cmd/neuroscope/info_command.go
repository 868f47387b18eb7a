package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"neuroscope/internal/neuroscope"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <folder>",
		Short: "Summarize a session folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := ctx.facadeOptions()
			if err != nil {
				return err
			}
			summary, err := neuroscope.Inspect(args[0], opts...)
			if err != nil {
				return err
			}
			return ctx.render(cmd, summary, func(w io.Writer) error {
				return writeTable(w, []string{"Field", "Value"}, summaryRows(summary), []columnAlignment{alignLeft, alignLeft})
			})
		},
	}
}

func summaryRows(s neuroscope.Summary) [][]string {
	rows := [][]string{
		{"Folder", s.Folder},
		{"Basename", s.Basename},
		{"Sampling rate", formatRate(s.SamplingRate)},
		{"Channels", formatCount(s.ChannelCount)},
		{"Data type", valueOrDash(s.DType)},
		{"Data file", valueOrDash(s.DatPath)},
	}
	if s.DatPath != "" {
		rows = append(rows,
			[]string{"Data size", humanize.IBytes(uint64(s.DatBytes))},
			[]string{"Frames", humanize.Comma(s.NumFrames)},
			[]string{"Duration", formatDuration(s)},
		)
	}
	rows = append(rows, []string{"Sorting", string(s.Layout)})
	switch s.Layout {
	case neuroscope.LayoutSingle:
		rows = append(rows, []string{"Spike files", s.ResPath + ", " + s.CluPath})
	case neuroscope.LayoutMulti:
		rows = append(rows, []string{"Shanks", joinInts(s.ShankIDs)})
	}
	if s.Layout != neuroscope.LayoutNone {
		rows = append(rows,
			[]string{"Units", strconv.Itoa(s.UnitCount)},
			[]string{"Spikes", humanize.Comma(s.SpikeCount)},
		)
	}
	for _, problem := range s.Problems {
		rows = append(rows, []string{"Problem", problem})
	}
	return rows
}

func formatRate(rate float64) string {
	if rate <= 0 {
		return "-"
	}
	return humanize.FtoaWithDigits(rate, 3) + " Hz"
}

func formatCount(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func formatDuration(s neuroscope.Summary) string {
	if s.Duration <= 0 {
		return "-"
	}
	return s.Duration.String()
}

func valueOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
