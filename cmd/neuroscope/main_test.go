package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"neuroscope/internal/metadata"
	"neuroscope/internal/neuroscope"
	"neuroscope/internal/testsupport"
)

func TestInfoSummarizesSession(t *testing.T) {
	env := setupCLITestEnv(t)
	folder := writeFullSession(t, "rat01")

	out, _, err := runCLI(t, []string{"info", folder}, env.configPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "rat01")
	requireContains(t, out, "20000 Hz")
	requireContains(t, out, "single")

	out, _, err = runCLI(t, []string{"info", folder, "--output", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("info json: %v", err)
	}
	var summary neuroscope.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Layout != neuroscope.LayoutSingle || summary.UnitCount != 2 || summary.NumFrames != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.ChannelCount != 2 || summary.DType != "int16" {
		t.Fatalf("unexpected acquisition fields %+v", summary)
	}
}

func TestInfoMissingFolderFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"info", filepath.Join(t.TempDir(), "absent")}, env.configPath); err == nil {
		t.Fatal("expected error for missing folder")
	}
}

func TestOutputFormatValidated(t *testing.T) {
	env := setupCLITestEnv(t)
	folder := writeFullSession(t, "rat01")
	_, _, err := runCLI(t, []string{"info", folder, "-o", "xml"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unsupported output format")
	}
	requireContains(t, err.Error(), "--output")
}

func decodeUnits(t *testing.T, out string) []unitRow {
	t.Helper()
	var rows []unitRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode units: %v\n%s", err, out)
	}
	return rows
}

func unitSpikes(rows []unitRow) map[int]int {
	got := make(map[int]int, len(rows))
	for _, r := range rows {
		got[r.Unit] = r.Spikes
	}
	return got
}

func TestUnitsSingleSorting(t *testing.T) {
	env := setupCLITestEnv(t)
	folder := writeFullSession(t, "rat01")

	out, _, err := runCLI(t, []string{"units", folder, "-o", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	rows := decodeUnits(t, out)
	if diff := cmp.Diff(map[int]int{1: 2, 2: 1}, unitSpikes(rows)); diff != "" {
		t.Fatalf("unexpected units (-want +got):\n%s", diff)
	}
	if rows[0].First == nil || *rows[0].First != 20 || *rows[0].Last != 40 {
		t.Fatalf("unexpected first unit %+v", rows[0])
	}

	out, _, err = runCLI(t, []string{"units", folder, "--no-mua", "-o", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("units --no-mua: %v", err)
	}
	if diff := cmp.Diff(map[int]int{1: 1}, unitSpikes(decodeUnits(t, out))); diff != "" {
		t.Fatalf("unexpected units without MUA (-want +got):\n%s", diff)
	}
}

func writeShankSession(t *testing.T, name string) string {
	t.Helper()
	folder := testsupport.NewSessionDir(t, name)
	testsupport.WriteSession(t, folder, metadata.Metadata{SamplingRate: 20000})
	base := filepath.Join(folder, name)
	testsupport.WriteSpikeFiles(t, base+".res.1", base+".clu.1", []int64{10, 20, 30}, []int64{2, 1, 2, 2})
	testsupport.WriteSpikeFiles(t, base+".res.3", base+".clu.3", []int64{15, 25}, []int64{2, 2, 1})
	return folder
}

func TestUnitsMultiSorting(t *testing.T) {
	env := setupCLITestEnv(t)
	folder := writeShankSession(t, "rat03")

	out, _, err := runCLI(t, []string{"units", folder, "-o", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	shanks := map[int]bool{}
	for _, r := range decodeUnits(t, out) {
		shanks[r.Shank] = true
	}
	if diff := cmp.Diff(map[int]bool{1: true, 3: true}, shanks); diff != "" {
		t.Fatalf("unexpected shanks (-want +got):\n%s", diff)
	}

	out, _, err = runCLI(t, []string{"units", folder, "--exclude-shanks", "3", "-o", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("units --exclude-shanks: %v", err)
	}
	for _, r := range decodeUnits(t, out) {
		if r.Shank != 1 {
			t.Fatalf("excluded shank listed: %+v", r)
		}
	}

	if _, _, err := runCLI(t, []string{"units", folder, "--exclude-shanks", "7"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown shank")
	}
}

func TestTracesPrintsSelectedChannels(t *testing.T) {
	env := setupCLITestEnv(t)
	folder := writeFullSession(t, "rat01")

	out, _, err := runCLI(t, []string{"traces", folder, "--channels", "1", "--start", "1", "--count", "2", "-o", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("traces: %v", err)
	}
	var block traceBlock
	if err := json.Unmarshal([]byte(out), &block); err != nil {
		t.Fatalf("decode traces: %v\n%s", err, out)
	}
	want := traceBlock{Channels: []int{1}, Start: 1, End: 3, Traces: [][]int32{{-2, -3}}}
	if diff := cmp.Diff(want, block); diff != "" {
		t.Fatalf("unexpected block (-want +got):\n%s", diff)
	}

	out, _, err = runCLI(t, []string{"traces", folder}, env.configPath)
	if err != nil {
		t.Fatalf("traces table: %v", err)
	}
	requireContains(t, out, "ch0")
	requireContains(t, out, "-3")
}

func TestResaveWritesCanonicalSorting(t *testing.T) {
	env := setupCLITestEnv(t)
	src := writeFullSession(t, "rat01")
	dst := filepath.Join(t.TempDir(), "rat01_clean")

	out, _, err := runCLI(t, []string{"resave", src, dst, "--with-dat"}, env.configPath)
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	requireContains(t, out, "2 units")
	requireContains(t, out, "Copied")

	readFile := func(path string) string {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		return string(data)
	}
	if got := readFile(filepath.Join(dst, "rat01_clean.res")); got != "20\n30\n40\n" {
		t.Fatalf("unexpected res %q", got)
	}
	if got := readFile(filepath.Join(dst, "rat01_clean.clu")); got != "2\n1\n2\n1\n" {
		t.Fatalf("unexpected clu %q", got)
	}
	md, err := metadata.Load(metadata.SidecarPath(dst))
	if err != nil {
		t.Fatalf("load copied sidecar: %v", err)
	}
	if md.ChannelCount != 2 || md.DType != metadata.Int16 {
		t.Fatalf("sidecar not copied: %+v", md)
	}
	if readFile(filepath.Join(dst, "rat01_clean.dat")) != readFile(filepath.Join(src, "rat01.dat")) {
		t.Fatal("raw data differs after copy")
	}
}

func TestResaveRejectsSameFolder(t *testing.T) {
	env := setupCLITestEnv(t)
	src := writeFullSession(t, "rat01")
	datPath := filepath.Join(src, "rat01.dat")
	before, err := os.ReadFile(datPath)
	if err != nil {
		t.Fatalf("read dat: %v", err)
	}

	_, _, err = runCLI(t, []string{"resave", src, src + "/.", "--with-dat"}, env.configPath)
	if err == nil {
		t.Fatal("expected error resaving a folder onto itself")
	}
	requireContains(t, err.Error(), "same folder")

	after, err := os.ReadFile(datPath)
	if err != nil {
		t.Fatalf("raw data removed: %v", err)
	}
	if string(after) != string(before) {
		t.Fatal("raw data changed")
	}
}

func TestResaveMultiSortingKeepsShankIndices(t *testing.T) {
	env := setupCLITestEnv(t)
	src := writeShankSession(t, "rat03")
	dst := filepath.Join(t.TempDir(), "rat03_clean")

	out, _, err := runCLI(t, []string{"resave", src, dst}, env.configPath)
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	requireContains(t, out, "(1,3)")
	for _, name := range []string{"rat03_clean.res.1", "rat03_clean.clu.1", "rat03_clean.res.3", "rat03_clean.clu.3"} {
		if _, err := os.Stat(filepath.Join(dst, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestCatalogScanListForget(t *testing.T) {
	env := setupCLITestEnv(t)
	single := writeFullSession(t, "rat01")
	multi := writeShankSession(t, "rat03")

	out, _, err := runCLI(t, []string{"catalog", "scan", single, multi}, env.configPath)
	if err != nil {
		t.Fatalf("catalog scan: %v", err)
	}
	requireContains(t, out, "Scanned "+single)

	out, _, err = runCLI(t, []string{"catalog", "list", "-o", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	var rows []catalogRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode catalog: %v\n%s", err, out)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 sessions, got %+v", rows)
	}
	byFolder := map[string]catalogRow{}
	for _, r := range rows {
		byFolder[r.Folder] = r
	}
	if r := byFolder[single]; r.Layout != "single" || r.UnitCount != 2 || r.ChannelCount != 2 {
		t.Fatalf("unexpected single session %+v", r)
	}
	if r := byFolder[multi]; r.Layout != "multi" || r.ShankCount != 2 {
		t.Fatalf("unexpected multi session %+v", r)
	}
	if rows[0].ScanID == "" || rows[0].ScanID != rows[1].ScanID {
		t.Fatalf("expected a shared scan id, got %q and %q", rows[0].ScanID, rows[1].ScanID)
	}

	out, _, err = runCLI(t, []string{"catalog", "forget", single}, env.configPath)
	if err != nil {
		t.Fatalf("catalog forget: %v", err)
	}
	requireContains(t, out, "Removed")
	if _, _, err := runCLI(t, []string{"catalog", "forget", single}, env.configPath); err == nil {
		t.Fatal("expected error forgetting an uncatalogued folder")
	}

	out, _, err = runCLI(t, []string{"catalog", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	requireContains(t, out, "rat03")
}

func TestCatalogDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCatalogDisabled())
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, path, cfg)

	if _, _, err := runCLI(t, []string{"catalog", "list"}, path); err == nil {
		t.Fatal("expected error with catalog disabled")
	}
}
