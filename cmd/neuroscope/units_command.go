package main

import (
	"errors"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"neuroscope/internal/neuroscope"
)

type unitRow struct {
	Shank  int     `json:"shank,omitempty" yaml:"shank,omitempty"`
	Unit   int     `json:"unit" yaml:"unit"`
	Spikes int     `json:"spikes" yaml:"spikes"`
	First  *int64  `json:"first_frame,omitempty" yaml:"first_frame,omitempty"`
	Last   *int64  `json:"last_frame,omitempty" yaml:"last_frame,omitempty"`
	Rate   float64 `json:"firing_rate,omitempty" yaml:"firing_rate,omitempty"`
}

func newUnitsCommand(ctx *commandContext) *cobra.Command {
	var noMUA bool
	var excludeShanks []int

	cmd := &cobra.Command{
		Use:   "units <folder>",
		Short: "List the sorted units of a session folder",
		Long: "List the sorted units of a session folder.\n\n" +
			"A <basename>.res/.clu pair is read as a single sorting; otherwise the\n" +
			"per-shank <basename>.res.N/.clu.N files are read as a multi-sorting.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []neuroscope.Option
			if cmd.Flags().Changed("no-mua") {
				extra = append(extra, neuroscope.WithKeepMUAUnits(!noMUA))
			}
			if cmd.Flags().Changed("exclude-shanks") {
				extra = append(extra, neuroscope.WithExcludeShanks(excludeShanks...))
			}
			opts, err := ctx.facadeOptions(extra...)
			if err != nil {
				return err
			}
			rows, err := loadUnitRows(args[0], opts)
			if err != nil {
				return err
			}
			return ctx.render(cmd, rows, func(w io.Writer) error {
				return writeTable(w, []string{"Shank", "Unit", "Spikes", "First", "Last", "Rate (Hz)"}, unitTableRows(rows),
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight})
			})
		},
	}
	cmd.Flags().BoolVar(&noMUA, "no-mua", false, "Drop the multi-unit cluster (overrides sorting.keep_mua_units)")
	cmd.Flags().IntSliceVar(&excludeShanks, "exclude-shanks", nil, "Shank indices to skip in a multi-sorting (e.g. 1,3)")
	return cmd
}

func loadUnitRows(folder string, opts []neuroscope.Option) ([]unitRow, error) {
	if _, _, err := neuroscope.FindSpikePair(folder); err == nil {
		sorting, err := neuroscope.SortingFromFolder(folder, opts...)
		if err != nil {
			return nil, err
		}
		return sortingRows(0, sorting), nil
	} else if !errors.Is(err, neuroscope.ErrAmbiguousSortingSource) {
		return nil, err
	}

	multi, err := neuroscope.OpenMultiSorting(folder, opts...)
	if err != nil {
		return nil, err
	}
	var rows []unitRow
	for i, id := range multi.ShankIDs() {
		rows = append(rows, sortingRows(id, multi.Shank(i))...)
	}
	return rows, nil
}

func sortingRows(shankID int, sorting *neuroscope.Sorting) []unitRow {
	units := sorting.Units().Units()
	rows := make([]unitRow, 0, len(units))
	rate := sorting.SamplingFrequency()
	for _, unit := range units {
		row := unitRow{Shank: shankID, Unit: unit.ID, Spikes: len(unit.Times)}
		if n := len(unit.Times); n > 0 {
			first, last := unit.Times[0], unit.Times[n-1]
			for _, t := range unit.Times {
				first = min(first, t)
				last = max(last, t)
			}
			row.First, row.Last = &first, &last
			if rate > 0 && last > first {
				row.Rate = float64(n) / (float64(last-first) / rate)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func unitTableRows(rows []unitRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		shank := "-"
		if r.Shank > 0 {
			shank = strconv.Itoa(r.Shank)
		}
		first, last := "-", "-"
		if r.First != nil {
			first = strconv.FormatInt(*r.First, 10)
			last = strconv.FormatInt(*r.Last, 10)
		}
		rate := "-"
		if r.Rate > 0 {
			rate = strconv.FormatFloat(r.Rate, 'f', 2, 64)
		}
		out = append(out, []string{shank, strconv.Itoa(r.Unit), strconv.Itoa(r.Spikes), first, last, rate})
	}
	return out
}
