package neuroscope_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"neuroscope/internal/extractor"
	"neuroscope/internal/metadata"
	"neuroscope/internal/neuroscope"
	"neuroscope/internal/spiketrain"
	"neuroscope/internal/testsupport"
)

// newSortingSession writes scenario A: clu header 3 with a noise spike first.
func newSortingSession(t *testing.T, name string) string {
	t.Helper()
	folder := testsupport.NewSessionDir(t, name)
	testsupport.WriteSession(t, folder, metadata.Metadata{SamplingRate: 20000})
	testsupport.WriteSpikeFiles(t,
		metadata.SessionPath(folder, ".res"),
		metadata.SessionPath(folder, ".clu"),
		[]int64{10, 20, 30, 40},
		[]int64{3, 0, 1, 2, 1},
	)
	return folder
}

func spikeTrains(t *testing.T, s extractor.Sorting) map[int][]int64 {
	t.Helper()
	out := make(map[int][]int64)
	for _, id := range s.UnitIDs() {
		times, err := s.UnitSpikeTrain(id, extractor.All())
		if err != nil {
			t.Fatalf("UnitSpikeTrain(%d): %v", id, err)
		}
		out[id] = times
	}
	return out
}

func TestSortingFromPairScenarioA(t *testing.T) {
	folder := newSortingSession(t, "rat02")
	s, err := neuroscope.SortingFromPair(
		filepath.Join(folder, "rat02.res"),
		filepath.Join(folder, "rat02.clu"),
	)
	if err != nil {
		t.Fatalf("SortingFromPair: %v", err)
	}

	want := map[int][]int64{1: {20, 40}, 2: {30}}
	if diff := cmp.Diff(want, spikeTrains(t, s)); diff != "" {
		t.Fatalf("unexpected spike trains (-want +got):\n%s", diff)
	}
	if s.SamplingFrequency() != 20000 {
		t.Fatalf("unexpected sampling rate %v", s.SamplingFrequency())
	}
	params := s.Params()
	if params.ResPath != filepath.Join(folder, "rat02.res") || params.KeepMUAUnits == nil || !*params.KeepMUAUnits {
		t.Fatalf("unexpected params %+v", params)
	}
	if s.Capabilities() != (extractor.Capabilities{SupportsWrite: true, StorageMode: extractor.Custom}) {
		t.Fatalf("unexpected capabilities %+v", s.Capabilities())
	}
}

func TestSortingWithoutMUARenumbers(t *testing.T) {
	folder := newSortingSession(t, "rat03")
	s, err := neuroscope.SortingFromFolder(folder, neuroscope.WithKeepMUAUnits(false))
	if err != nil {
		t.Fatalf("SortingFromFolder: %v", err)
	}
	want := map[int][]int64{1: {30}}
	if diff := cmp.Diff(want, spikeTrains(t, s)); diff != "" {
		t.Fatalf("unexpected spike trains (-want +got):\n%s", diff)
	}
}

func TestSortingSpikeTrainWindow(t *testing.T) {
	folder := newSortingSession(t, "rat04")
	s, err := neuroscope.SortingFromFolder(folder)
	if err != nil {
		t.Fatalf("SortingFromFolder: %v", err)
	}
	tests := []struct {
		name string
		r    extractor.FrameRange
		want []int64
	}{
		{name: "all", r: extractor.All(), want: []int64{20, 40}},
		{name: "end exclusive", r: extractor.Frames(0, 40), want: []int64{20}},
		{name: "open end", r: extractor.Since(21), want: []int64{40}},
		{name: "zero end is empty", r: extractor.Frames(0, 0), want: []int64{}},
		{name: "empty", r: extractor.Frames(21, 39), want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.UnitSpikeTrain(1, tt.r)
			if err != nil {
				t.Fatalf("UnitSpikeTrain: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("unexpected spikes (-want +got):\n%s", diff)
			}
		})
	}
	if _, err := s.UnitSpikeTrain(9, extractor.All()); !errors.Is(err, neuroscope.ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit, got %v", err)
	}
}

func TestSortingFromFolderPrefersBasenamePair(t *testing.T) {
	folder := newSortingSession(t, "rat05")
	testsupport.WriteSpikeFiles(t,
		filepath.Join(folder, "other.res"),
		filepath.Join(folder, "other.clu"),
		[]int64{1}, []int64{2, 1},
	)
	s, err := neuroscope.SortingFromFolder(folder)
	if err != nil {
		t.Fatalf("SortingFromFolder: %v", err)
	}
	if got := s.Params().ResPath; got != filepath.Join(folder, "rat05.res") {
		t.Fatalf("unexpected res path %q", got)
	}
	if got := s.Params().Folder; got != folder {
		t.Fatalf("unexpected folder %q", got)
	}
}

func TestSortingFromFolderUsesOnlyPair(t *testing.T) {
	folder := testsupport.NewSessionDir(t, "session")
	testsupport.WriteSession(t, folder, metadata.Metadata{SamplingRate: 1250})
	testsupport.WriteSpikeFiles(t,
		filepath.Join(folder, "renamed.res"),
		filepath.Join(folder, "renamed.clu"),
		[]int64{5, 6}, []int64{2, 1, 1},
	)
	s, err := neuroscope.SortingFromFolder(folder)
	if err != nil {
		t.Fatalf("SortingFromFolder: %v", err)
	}
	// Cluster 0 never occurs, so the declared count of 2 is raised to 3 and
	// cluster 2 becomes an empty unit.
	if diff := cmp.Diff([]int{1, 2}, s.UnitIDs()); diff != "" {
		t.Fatalf("unexpected unit ids (-want +got):\n%s", diff)
	}
}

func TestSortingFromFolderAmbiguous(t *testing.T) {
	tests := []struct {
		name  string
		files []string
	}{
		{name: "empty", files: nil},
		{name: "two pairs", files: []string{"a.res", "a.clu", "b.res", "b.clu"}},
		{name: "res only", files: []string{"a.res"}},
		{name: "shanks only", files: []string{"a.res.1", "a.clu.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folder := testsupport.NewSessionDir(t, "session")
			testsupport.WriteSession(t, folder, metadata.Metadata{SamplingRate: 1000})
			for _, name := range tt.files {
				testsupport.WriteLines(t, filepath.Join(folder, name), 1)
			}
			_, err := neuroscope.SortingFromFolder(folder)
			if !errors.Is(err, neuroscope.ErrAmbiguousSortingSource) {
				t.Fatalf("expected ErrAmbiguousSortingSource, got %v", err)
			}
		})
	}
}

func TestOpenSortingSourceModes(t *testing.T) {
	folder := newSortingSession(t, "rat06")
	res := filepath.Join(folder, "rat06.res")
	clu := filepath.Join(folder, "rat06.clu")

	tests := []struct {
		name    string
		src     neuroscope.Source
		wantErr error
	}{
		{name: "folder", src: neuroscope.Source{Folder: folder}},
		{name: "pair", src: neuroscope.Source{ResPath: res, CluPath: clu}},
		{name: "res only", src: neuroscope.Source{ResPath: res}, wantErr: neuroscope.ErrAmbiguousSortingSource},
		{name: "clu and folder", src: neuroscope.Source{Folder: folder, CluPath: clu}, wantErr: neuroscope.ErrAmbiguousSortingSource},
		{name: "nothing", src: neuroscope.Source{}, wantErr: neuroscope.ErrAmbiguousSortingSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := neuroscope.OpenSorting(tt.src)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenSorting: %v", err)
			}
			if diff := cmp.Diff([]int{1, 2}, s.UnitIDs()); diff != "" {
				t.Fatalf("unexpected unit ids (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpenSortingPairWinsOverFolder(t *testing.T) {
	folder := newSortingSession(t, "rat07")
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	s, err := neuroscope.OpenSorting(neuroscope.Source{
		Folder:  filepath.Join(t.TempDir(), "does-not-exist"),
		ResPath: filepath.Join(folder, "rat07.res"),
		CluPath: filepath.Join(folder, "rat07.clu"),
	}, neuroscope.WithLogger(logger))
	if err != nil {
		t.Fatalf("OpenSorting: %v", err)
	}
	if len(s.UnitIDs()) != 2 {
		t.Fatalf("unexpected unit ids %v", s.UnitIDs())
	}
	if !strings.Contains(logs.String(), `"event_type":"sorting_source_conflict"`) {
		t.Fatalf("expected conflict warning, got %s", logs.String())
	}
}

func TestSortingMissingSidecar(t *testing.T) {
	folder := testsupport.NewSessionDir(t, "nosidecar")
	testsupport.WriteSpikeFiles(t,
		filepath.Join(folder, "nosidecar.res"),
		filepath.Join(folder, "nosidecar.clu"),
		[]int64{1}, []int64{2, 1},
	)
	_, err := neuroscope.SortingFromFolder(folder)
	if !errors.Is(err, neuroscope.ErrMalformedMetadata) {
		t.Fatalf("expected ErrMalformedMetadata, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestSortingMismatchedFiles(t *testing.T) {
	folder := testsupport.NewSessionDir(t, "mismatch")
	testsupport.WriteSession(t, folder, metadata.Metadata{SamplingRate: 1000})
	testsupport.WriteSpikeFiles(t,
		filepath.Join(folder, "mismatch.res"),
		filepath.Join(folder, "mismatch.clu"),
		[]int64{1, 2, 3}, []int64{2, 1},
	)
	_, err := neuroscope.SortingFromFolder(folder)
	if !errors.Is(err, neuroscope.ErrMismatchedSpikeFiles) {
		t.Fatalf("expected ErrMismatchedSpikeFiles, got %v", err)
	}
}

func TestSortingAddUnitAndShiftAreIndependent(t *testing.T) {
	folder := newSortingSession(t, "rat08")
	s, err := neuroscope.SortingFromFolder(folder)
	if err != nil {
		t.Fatalf("SortingFromFolder: %v", err)
	}
	times := []int64{5, 15}
	if err := s.AddUnit(7, times); err != nil {
		t.Fatalf("AddUnit: %v", err)
	}
	times[0] = 99
	if err := s.AddUnit(7, nil); !errors.Is(err, spiketrain.ErrDuplicateUnit) {
		t.Fatalf("expected ErrDuplicateUnit, got %v", err)
	}

	shifted := s.ShiftUnitIDs(100)
	if diff := cmp.Diff([]int{101, 102, 107}, shifted.UnitIDs()); diff != "" {
		t.Fatalf("unexpected shifted ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 7}, s.UnitIDs()); diff != "" {
		t.Fatalf("source sorting changed (-want +got):\n%s", diff)
	}
	got, err := shifted.UnitSpikeTrain(107, extractor.All())
	if err != nil {
		t.Fatalf("UnitSpikeTrain: %v", err)
	}
	if diff := cmp.Diff([]int64{5, 15}, got); diff != "" {
		t.Fatalf("unexpected spikes (-want +got):\n%s", diff)
	}
}

func TestSaveSortingWritesCanonicalOrder(t *testing.T) {
	units, err := spiketrain.New(
		spiketrain.Unit{ID: 1, Times: []int64{50, 10}},
		spiketrain.Unit{ID: 2, Times: []int64{30}},
	)
	if err != nil {
		t.Fatalf("spiketrain.New: %v", err)
	}
	dst := filepath.Join(t.TempDir(), "rat09")
	if err := neuroscope.SaveSorting(context.Background(), neuroscope.NewSorting(units, 20000), dst); err != nil {
		t.Fatalf("SaveSorting: %v", err)
	}

	res, err := os.ReadFile(filepath.Join(dst, "rat09.res"))
	if err != nil {
		t.Fatalf("read res: %v", err)
	}
	clu, err := os.ReadFile(filepath.Join(dst, "rat09.clu"))
	if err != nil {
		t.Fatalf("read clu: %v", err)
	}
	if string(res) != "10\n30\n50\n" {
		t.Fatalf("unexpected res body %q", res)
	}
	if string(clu) != "2\n1\n2\n1\n" {
		t.Fatalf("unexpected clu body %q", clu)
	}

	rate, err := metadata.LoadSamplingRate(filepath.Join(dst, "rat09.xml"))
	if err != nil {
		t.Fatalf("LoadSamplingRate: %v", err)
	}
	if rate != 20000 {
		t.Fatalf("unexpected sidecar rate %v", rate)
	}

	reopened, err := neuroscope.SortingFromFolder(dst)
	if err != nil {
		t.Fatalf("SortingFromFolder: %v", err)
	}
	want := map[int][]int64{1: {10, 50}, 2: {30}}
	if diff := cmp.Diff(want, spikeTrains(t, reopened)); diff != "" {
		t.Fatalf("unexpected round trip (-want +got):\n%s", diff)
	}
}

func TestSaveSortingLabelsFollowUnitIDOrder(t *testing.T) {
	units, err := spiketrain.New(
		spiketrain.Unit{ID: 5, Times: []int64{10, 30}},
		spiketrain.Unit{ID: 2, Times: []int64{20}},
	)
	if err != nil {
		t.Fatalf("spiketrain.New: %v", err)
	}
	dst := filepath.Join(t.TempDir(), "rat10")
	if err := neuroscope.SaveSorting(context.Background(), neuroscope.NewSorting(units, 20000), dst); err != nil {
		t.Fatalf("SaveSorting: %v", err)
	}

	clu, err := os.ReadFile(filepath.Join(dst, "rat10.clu"))
	if err != nil {
		t.Fatalf("read clu: %v", err)
	}
	// Unit 2 sorts first and takes label 1.
	if string(clu) != "2\n2\n1\n2\n" {
		t.Fatalf("unexpected clu body %q", clu)
	}
}

func TestSaveSortingEmptyCollection(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "empty")
	if err := neuroscope.SaveSorting(context.Background(), neuroscope.NewSorting(nil, 1000), dst); err != nil {
		t.Fatalf("SaveSorting: %v", err)
	}
	res, err := os.ReadFile(filepath.Join(dst, "empty.res"))
	if err != nil {
		t.Fatalf("read res: %v", err)
	}
	clu, err := os.ReadFile(filepath.Join(dst, "empty.clu"))
	if err != nil {
		t.Fatalf("read clu: %v", err)
	}
	if string(res) != "" || string(clu) != "0\n" {
		t.Fatalf("unexpected bodies res=%q clu=%q", res, clu)
	}

	reopened, err := neuroscope.SortingFromFolder(dst)
	if err != nil {
		t.Fatalf("SortingFromFolder: %v", err)
	}
	if len(reopened.UnitIDs()) != 0 {
		t.Fatalf("expected no units, got %v", reopened.UnitIDs())
	}
}

func TestSaveSortingRoundTripsDecodedSorting(t *testing.T) {
	folder := newSortingSession(t, "rat10")
	s, err := neuroscope.SortingFromFolder(folder)
	if err != nil {
		t.Fatalf("SortingFromFolder: %v", err)
	}
	dst := filepath.Join(t.TempDir(), "rat10")
	if err := neuroscope.SaveSorting(context.Background(), s, dst); err != nil {
		t.Fatalf("SaveSorting: %v", err)
	}
	reopened, err := neuroscope.SortingFromFolder(dst)
	if err != nil {
		t.Fatalf("SortingFromFolder: %v", err)
	}
	if diff := cmp.Diff(spikeTrains(t, s), spikeTrains(t, reopened)); diff != "" {
		t.Fatalf("unexpected round trip (-want +got):\n%s", diff)
	}
}

func TestSaveSortingKeepsExistingSidecar(t *testing.T) {
	dst := testsupport.NewSessionDir(t, "rat11")
	xmlPath := testsupport.WriteSession(t, dst, metadata.Metadata{DType: metadata.Int16, ChannelCount: 8, SamplingRate: 32000})
	before, err := os.ReadFile(xmlPath)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	units, _ := spiketrain.New(spiketrain.Unit{ID: 1, Times: []int64{1}})
	if err := neuroscope.SaveSorting(context.Background(), neuroscope.NewSorting(units, 1000), dst); err != nil {
		t.Fatalf("SaveSorting: %v", err)
	}
	after, err := os.ReadFile(xmlPath)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("sidecar rewritten:\nbefore %s\nafter %s", before, after)
	}
}
