package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"neuroscope/internal/fileutil"
	"neuroscope/internal/metadata"
	"neuroscope/internal/neuroscope"
)

func newResaveCommand(ctx *commandContext) *cobra.Command {
	var withDat bool

	cmd := &cobra.Command{
		Use:   "resave <source-folder> <target-folder>",
		Short: "Rewrite a session's sorting in canonical form",
		Long: "Rewrite a session's sorting in canonical form.\n\n" +
			"Spike times are sorted, labels renumbered from 1 and files named after\n" +
			"the target folder. The source sidecar is copied when the target has none.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[0], args[1]
			opts, err := ctx.facadeOptions()
			if err != nil {
				return err
			}
			same, err := fileutil.SamePath(src, dst)
			if err != nil {
				return fmt.Errorf("check folders: %w", err)
			}
			if same {
				return fmt.Errorf("source and target are the same folder %s; resave into a new folder", src)
			}
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return fmt.Errorf("create target folder: %w", err)
			}
			if err := copySidecar(src, dst); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, _, err := neuroscope.FindSpikePair(src); err == nil {
				sorting, err := neuroscope.SortingFromFolder(src, opts...)
				if err != nil {
					return err
				}
				if err := neuroscope.SaveSorting(cmd.Context(), sorting, dst, opts...); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote sorting with %d units and %s spikes to %s\n",
					len(sorting.UnitIDs()), humanize.Comma(int64(sorting.NumSpikes())), dst)
			} else if errors.Is(err, neuroscope.ErrAmbiguousSortingSource) {
				multi, err := neuroscope.OpenMultiSorting(src, opts...)
				if err != nil {
					return err
				}
				if err := neuroscope.SaveMultiSorting(cmd.Context(), multi, dst, opts...); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d shank sortings (%s) to %s\n",
					len(multi.ShankIDs()), joinInts(multi.ShankIDs()), dst)
			} else {
				return err
			}

			if withDat {
				size, err := copyDat(src, dst)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Copied %s of raw data\n", humanize.IBytes(uint64(size)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withDat, "with-dat", false, "Also copy the raw .dat file (verified)")
	return cmd
}

func copySidecar(src, dst string) error {
	from := metadata.SidecarPath(src)
	to := metadata.SidecarPath(dst)
	if _, err := os.Stat(to); err == nil {
		return nil
	}
	if _, err := os.Stat(from); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat sidecar: %w", err)
	}
	if err := fileutil.CopyFile(from, to); err != nil {
		return fmt.Errorf("copy sidecar: %w", err)
	}
	return nil
}

func copyDat(src, dst string) (int64, error) {
	from := metadata.SessionPath(src, ".dat")
	info, err := os.Stat(from)
	if err != nil {
		return 0, fmt.Errorf("stat raw data: %w", err)
	}
	if err := fileutil.CopyFileVerified(from, metadata.SessionPath(dst, ".dat")); err != nil {
		return 0, fmt.Errorf("copy raw data: %w", err)
	}
	return info.Size(), nil
}
