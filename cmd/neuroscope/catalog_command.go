package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"neuroscope/internal/catalog"
	"neuroscope/internal/logging"
	"neuroscope/internal/neuroscope"
)

type catalogRow struct {
	Folder       string    `json:"folder" yaml:"folder"`
	SamplingRate float64   `json:"sampling_rate,omitempty" yaml:"sampling_rate,omitempty"`
	ChannelCount int       `json:"channel_count,omitempty" yaml:"channel_count,omitempty"`
	DatBytes     int64     `json:"dat_bytes" yaml:"dat_bytes"`
	Layout       string    `json:"layout" yaml:"layout"`
	ShankCount   int       `json:"shank_count,omitempty" yaml:"shank_count,omitempty"`
	UnitCount    int       `json:"unit_count" yaml:"unit_count"`
	SpikeCount   int64     `json:"spike_count" yaml:"spike_count"`
	ScanID       string    `json:"scan_id" yaml:"scan_id"`
	ScannedAt    time.Time `json:"scanned_at" yaml:"scanned_at"`
	ScanError    string    `json:"scan_error,omitempty" yaml:"scan_error,omitempty"`
}

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Maintain the local catalog of scanned sessions",
	}
	catalogCmd.AddCommand(newCatalogScanCommand(ctx))
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogForgetCommand(ctx))
	return catalogCmd
}

func openCatalog(ctx *commandContext) (*catalog.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg)
}

func newCatalogScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <folder>...",
		Short: "Inspect session folders and record them in the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := ctx.facadeOptions()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			scanID := uuid.NewString()
			logger = logger.With(logging.String(logging.FieldComponent, "catalog"), logging.String("scan_id", scanID))
			scannedAt := time.Now().UTC()
			out := cmd.OutOrStdout()
			for _, folder := range args {
				summary, err := neuroscope.Inspect(folder, opts...)
				if err != nil {
					return err
				}
				session := sessionFromSummary(summary, scanID, scannedAt)
				if err := store.Upsert(cmd.Context(), session); err != nil {
					return err
				}
				if session.ScanError != "" {
					logging.WarnWithContext(logger, "session scanned with problems", "scan_problems",
						logging.String(logging.FieldSession, summary.Basename),
						logging.Int("problem_count", len(summary.Problems)),
						logging.String(logging.FieldErrorHint, "run neuroscope info on the folder for details"),
					)
				} else {
					logger.Info("session scanned",
						logging.String(logging.FieldSession, summary.Basename),
						logging.String("layout", string(summary.Layout)),
						logging.Int("unit_count", summary.UnitCount),
					)
				}
				fmt.Fprintf(out, "Scanned %s (%s, %d units)\n", summary.Folder, summary.Layout, summary.UnitCount)
			}
			return nil
		},
	}
}

func sessionFromSummary(s neuroscope.Summary, scanID string, scannedAt time.Time) catalog.Session {
	return catalog.Session{
		Folder:       s.Folder,
		Basename:     s.Basename,
		SamplingRate: s.SamplingRate,
		ChannelCount: s.ChannelCount,
		DType:        s.DType,
		DatBytes:     s.DatBytes,
		NumFrames:    s.NumFrames,
		Layout:       string(s.Layout),
		ShankCount:   len(s.ShankIDs),
		UnitCount:    s.UnitCount,
		SpikeCount:   s.SpikeCount,
		ScanID:       scanID,
		ScannedAt:    scannedAt,
		ScanError:    strings.Join(s.Problems, "; "),
	}
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalogued sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([]catalogRow, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, catalogRow{
					Folder:       s.Folder,
					SamplingRate: s.SamplingRate,
					ChannelCount: s.ChannelCount,
					DatBytes:     s.DatBytes,
					Layout:       s.Layout,
					ShankCount:   s.ShankCount,
					UnitCount:    s.UnitCount,
					SpikeCount:   s.SpikeCount,
					ScanID:       s.ScanID,
					ScannedAt:    s.ScannedAt,
					ScanError:    s.ScanError,
				})
			}
			return ctx.render(cmd, rows, func(w io.Writer) error {
				if len(rows) == 0 {
					_, err := fmt.Fprintln(w, "No sessions catalogued")
					return err
				}
				return writeTable(w,
					[]string{"Folder", "Rate", "Channels", "Data", "Sorting", "Units", "Spikes", "Scanned"},
					catalogTableRows(rows),
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight, alignRight, alignLeft},
				)
			})
		},
	}
}

func catalogTableRows(rows []catalogRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		layout := r.Layout
		if r.ShankCount > 0 {
			layout = fmt.Sprintf("%s (%d shanks)", layout, r.ShankCount)
		}
		if r.ScanError != "" {
			layout += " !"
		}
		out = append(out, []string{
			r.Folder,
			formatRate(r.SamplingRate),
			formatCount(r.ChannelCount),
			humanize.IBytes(uint64(r.DatBytes)),
			layout,
			strconv.Itoa(r.UnitCount),
			humanize.Comma(r.SpikeCount),
			humanize.Time(r.ScannedAt),
		})
	}
	return out
}

func newCatalogForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <folder>",
		Short: "Remove a session from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			folder, err := absFolder(args[0])
			if err != nil {
				return err
			}
			removed, err := store.Remove(cmd.Context(), folder)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%s is not catalogued", folder)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the catalog\n", folder)
			return nil
		},
	}
}
