package spiketext

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"neuroscope/internal/spiketrain"
)

var (
	// ErrMismatchedSpikeFiles reports a `.res`/`.clu` pair with different body lengths.
	ErrMismatchedSpikeFiles = errors.New("mismatched spike files")
	// ErrMalformedSpikeFile reports a line that is not a decimal integer.
	ErrMalformedSpikeFile = errors.New("malformed spike file")
)

const maxLineBytes = 1 << 20

// MaxClusterCount caps the effective cluster count of a `.clu` file. Every
// cluster in range becomes a unit, so a corrupt header would otherwise
// allocate one empty unit per id.
const MaxClusterCount = 1 << 16

// Read decodes the pair stored at resPath and cluPath.
func Read(resPath, cluPath string, opts Options) (*spiketrain.Collection, error) {
	resFile, err := os.Open(resPath)
	if err != nil {
		return nil, fmt.Errorf("open res file: %w", err)
	}
	defer resFile.Close()

	cluFile, err := os.Open(cluPath)
	if err != nil {
		return nil, fmt.Errorf("open clu file: %w", err)
	}
	defer cluFile.Close()

	units, err := Decode(resFile, cluFile, opts)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", resPath, err)
	}
	return units, nil
}

// Decode parses a `.res` stream and its `.clu` stream into a collection.
func Decode(res, clu io.Reader, opts Options) (*spiketrain.Collection, error) {
	conv := opts.convention()
	if err := conv.Validate(); err != nil {
		return nil, err
	}

	times, err := readColumn(res)
	if err != nil {
		return nil, fmt.Errorf("res: %w", err)
	}
	labels, err := readColumn(clu)
	if err != nil {
		return nil, fmt.Errorf("clu: %w", err)
	}

	units, _ := spiketrain.New()
	if len(times) == 0 {
		return units, nil
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: %d spike times but empty clu file", ErrMismatchedSpikeFiles, len(times))
	}

	declared, ids := labels[0], labels[1:]
	if len(ids) != len(times) {
		return nil, fmt.Errorf("%w: %d spike times, %d cluster labels", ErrMismatchedSpikeFiles, len(times), len(ids))
	}

	count := ClusterCount(declared, ids, conv)
	if count > MaxClusterCount {
		return nil, fmt.Errorf("%w: clu header declares %d clusters, limit is %d", ErrMalformedSpikeFile, declared, MaxClusterCount)
	}
	first := int64(conv.firstCluster(opts.KeepMUAUnits))

	buckets := make(map[int64][]int64)
	for i, id := range ids {
		if id >= first && id < count {
			buckets[id] = append(buckets[id], times[i])
		}
	}
	for id := first; id < count; id++ {
		if err := units.AddUnit(int(id-first+1), buckets[id]); err != nil {
			return nil, err
		}
	}
	return units, nil
}

// ClusterCount returns the effective cluster count for a `.clu` body.
// When the ids present do not cover 0..declared, the count is raised by one
// for each reserved id of conv that never occurs.
func ClusterCount(declared int64, ids []int64, conv Convention) int64 {
	present := make(map[int64]struct{}, 8)
	for _, id := range ids {
		present[id] = struct{}{}
	}
	if coversRange(present, declared) {
		return declared
	}
	count := declared
	for _, reserved := range conv.reserved() {
		if _, ok := present[int64(reserved)]; !ok {
			count++
		}
	}
	return count
}

func coversRange(present map[int64]struct{}, declared int64) bool {
	if declared < 0 || int64(len(present)) != declared+1 {
		return false
	}
	for id := int64(0); id <= declared; id++ {
		if _, ok := present[id]; !ok {
			return false
		}
	}
	return true
}

// readColumn reads the first whitespace-separated field of every non-blank,
// non-comment line as a decimal integer.
func readColumn(r io.Reader) ([]int64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var values []int64
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		value, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q is not an integer", ErrMalformedSpikeFile, line, fields[0])
		}
		values = append(values, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}
