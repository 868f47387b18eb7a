package bindat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"neuroscope/internal/extractor"
	"neuroscope/internal/metadata"
)

const writeChunkFrames = 1 << 16

// Write stores every channel of rec at path as interleaved samples of dtype.
// Samples go to a temporary file in the same directory that then replaces
// path, so a mapping of the old file (rec itself included) stays readable.
// Values wider than dtype are truncated the way a plain integer conversion does.
func Write(path string, rec extractor.Recording, dtype metadata.DType) (err error) {
	if !dtype.Valid() {
		return fmt.Errorf("write %s: %w: %s", path, metadata.ErrUnsupportedDType, dtype)
	}
	channels := rec.ChannelIDs()
	total := rec.NumFrames()

	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create dat file: %w", err)
	}
	tmpPath := file.Name()
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmpPath)
		}
	}()
	if err := file.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod dat file: %w", err)
	}

	w := bufio.NewWriterSize(file, 1<<20)
	width := dtype.Size()
	frame := make([]byte, width*len(channels))
	for start := int64(0); start < total; start += writeChunkFrames {
		end := min(start+writeChunkFrames, total)
		block, err := rec.Traces(channels, extractor.Frames(start, end))
		if err != nil {
			return fmt.Errorf("read traces [%d, %d): %w", start, end, err)
		}
		for i := 0; i < int(end-start); i++ {
			for ch := range channels {
				encodeSample(frame[ch*width:], block[ch][i], dtype)
			}
			if _, err := w.Write(frame); err != nil {
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace dat file: %w", err)
	}
	return nil
}

func encodeSample(b []byte, value int32, dtype metadata.DType) {
	if dtype == metadata.Int16 {
		binary.LittleEndian.PutUint16(b, uint16(int16(value)))
		return
	}
	binary.LittleEndian.PutUint32(b, uint32(value))
}
