package extractor

import (
	"errors"
	"testing"
)

func TestFrameRangeBounds(t *testing.T) {
	tests := []struct {
		name       string
		r          FrameRange
		total      int64
		start, end int64
		wantErr    bool
	}{
		{"full extent", All(), 100, 0, 100, false},
		{"window", Frames(10, 20), 100, 10, 20, false},
		{"end clamped", Frames(90, 500), 100, 90, 100, false},
		{"empty at end", Since(100), 100, 100, 100, false},
		{"explicit empty", Frames(0, 0), 100, 0, 0, false},
		{"open from start", Since(40), 100, 40, 100, false},
		{"zero end before start", Frames(5, 0), 100, 0, 0, true},
		{"negative start", Frames(-1, 5), 100, 0, 0, true},
		{"start past end", Frames(30, 20), 100, 0, 0, true},
	}
	for _, tt := range tests {
		start, end, err := tt.r.Bounds(tt.total)
		if tt.wantErr {
			if !errors.Is(err, ErrFrameRange) {
				t.Errorf("%s: expected ErrFrameRange, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if start != tt.start || end != tt.end {
			t.Errorf("%s: got [%d, %d) want [%d, %d)", tt.name, start, end, tt.start, tt.end)
		}
	}
}

func TestFrameRangeContains(t *testing.T) {
	r := Frames(5, 10)
	if r.Contains(4) || !r.Contains(5) || !r.Contains(9) || r.Contains(10) {
		t.Fatalf("unexpected membership for %+v", r)
	}
	if !All().Contains(1<<40) || !Since(5).Contains(1<<40) {
		t.Fatal("expected open range to contain large frames")
	}
	empty := Frames(0, 0)
	if empty.Open() || empty.Contains(0) || empty.Contains(10) {
		t.Fatalf("expected [0, 0) to be empty, got %+v", empty)
	}
}

func TestStorageModeString(t *testing.T) {
	if Folder.String() != "folder" || Custom.String() != "custom" || SingleFile.String() != "file" {
		t.Fatalf("unexpected storage mode names: %s %s %s", Folder, Custom, SingleFile)
	}
}
