package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"neuroscope/internal/metadata"
)

// WriteFile creates a file with deterministic contents of the given size.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 64 * 1024
	pattern := []byte("neuroscope-test-fixture-data\n")
	chunk := make([]byte, chunkSize)
	for i := range chunk {
		chunk[i] = pattern[i%len(pattern)]
	}

	remaining := size
	for remaining > 0 {
		n := int64(len(chunk))
		if remaining < n {
			n = remaining
		}
		if _, err := f.Write(chunk[:n]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= n
	}
}

// WriteText writes body to path, creating parent directories.
func WriteText(t testing.TB, path, body string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteLines writes one integer per line, the layout of .res and .clu files.
func WriteLines(t testing.TB, path string, values ...int64) {
	t.Helper()

	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.FormatInt(v, 10))
		b.WriteByte('\n')
	}
	WriteText(t, path, b.String())
}

// WriteSpikeFiles writes a .res/.clu pair. clu carries the header line.
func WriteSpikeFiles(t testing.TB, resPath, cluPath string, res, clu []int64) {
	t.Helper()

	WriteLines(t, resPath, res...)
	WriteLines(t, cluPath, clu...)
}

// NewSessionDir creates <TempDir>/<name> and returns it.
func NewSessionDir(t testing.TB, name string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	return dir
}

// WriteSession writes the folder's <basename>.xml sidecar and returns its path.
func WriteSession(t testing.TB, folder string, md metadata.Metadata) string {
	t.Helper()

	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", folder, err)
	}
	path := metadata.SidecarPath(folder)
	if _, err := metadata.Write(path, md); err != nil {
		t.Fatalf("write sidecar %s: %v", path, err)
	}
	return path
}

// WriteDat writes frame-major samples (frames[f][c]) to path as little-endian
// values of dtype.
func WriteDat(t testing.TB, path string, dtype metadata.DType, frames [][]int32) {
	t.Helper()

	var buf []byte
	for _, frame := range frames {
		for _, v := range frame {
			switch dtype {
			case metadata.Int16:
				buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(v)))
			default:
				buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write dat %s: %v", path, err)
	}
}
