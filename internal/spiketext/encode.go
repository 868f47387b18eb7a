package spiketext

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"neuroscope/internal/spiketrain"
)

type labeledSpike struct {
	time  int64
	label int64
}

// Write encodes units into the files at resPath and cluPath, truncating them.
func Write(units *spiketrain.Collection, resPath, cluPath string) error {
	resFile, err := os.Create(resPath)
	if err != nil {
		return fmt.Errorf("create res file: %w", err)
	}
	defer resFile.Close()

	cluFile, err := os.Create(cluPath)
	if err != nil {
		return fmt.Errorf("create clu file: %w", err)
	}
	defer cluFile.Close()

	if err := Encode(units, resFile, cluFile); err != nil {
		return fmt.Errorf("encode %s: %w", resPath, err)
	}
	if err := resFile.Close(); err != nil {
		return err
	}
	return cluFile.Close()
}

// Encode writes units as a time-sorted `.res`/`.clu` pair. The unit at
// position i contributes cluster label i+1; the `.clu` header is the number of
// distinct labels written.
func Encode(units *spiketrain.Collection, res, clu io.Writer) error {
	spikes := make([]labeledSpike, 0, units.NumSpikes())
	for i, unit := range units.Units() {
		for _, t := range unit.Times {
			spikes = append(spikes, labeledSpike{time: t, label: int64(i + 1)})
		}
	}
	slices.SortStableFunc(spikes, func(a, b labeledSpike) int {
		return cmp.Compare(a.time, b.time)
	})

	distinct := make(map[int64]struct{})
	for _, s := range spikes {
		distinct[s.label] = struct{}{}
	}

	resBuf := bufio.NewWriter(res)
	cluBuf := bufio.NewWriter(clu)
	if err := writeInt(cluBuf, int64(len(distinct))); err != nil {
		return err
	}
	for _, s := range spikes {
		if err := writeInt(resBuf, s.time); err != nil {
			return err
		}
		if err := writeInt(cluBuf, s.label); err != nil {
			return err
		}
	}
	if err := resBuf.Flush(); err != nil {
		return err
	}
	return cluBuf.Flush()
}

func writeInt(w *bufio.Writer, value int64) error {
	var scratch [24]byte
	line := strconv.AppendInt(scratch[:0], value, 10)
	line = append(line, '\n')
	_, err := w.Write(line)
	return err
}
