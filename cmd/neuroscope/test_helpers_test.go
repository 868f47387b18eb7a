package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"neuroscope/internal/config"
	"neuroscope/internal/metadata"
	"neuroscope/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, path, cfg)
	return cliTestEnv{cfg: cfg, configPath: path}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// writeFullSession writes a two-channel int16 session with three frames and a
// sorting whose first spike is noise.
func writeFullSession(t *testing.T, name string) string {
	t.Helper()
	folder := testsupport.NewSessionDir(t, name)
	testsupport.WriteSession(t, folder, metadata.Metadata{
		DType:        metadata.Int16,
		ChannelCount: 2,
		SamplingRate: 20000,
	})
	testsupport.WriteDat(t, metadata.SessionPath(folder, ".dat"), metadata.Int16, [][]int32{
		{1, -1},
		{2, -2},
		{3, -3},
	})
	testsupport.WriteSpikeFiles(t,
		metadata.SessionPath(folder, ".res"),
		metadata.SessionPath(folder, ".clu"),
		[]int64{10, 20, 30, 40},
		[]int64{3, 0, 1, 2, 1},
	)
	return folder
}
