package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i5heu/GoCheckedQueue/pkg/config"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"demo", "run", "markdown-table"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
}

func TestDemoOutput(t *testing.T) {
	stdout, _, err := execute(t, "demo")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "demo", []byte(stdout))
}

func TestDemoVerboseLogsChecks(t *testing.T) {
	_, stderr, err := execute(t, "demo", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "checking queue structural invariants")
	assert.Contains(t, stderr, "op=dequeue")
}

func TestRunWritesReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.json")
	cfgPath := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
concurrency:
  - producers: 2
    consumers: 2
iterations: 1
duration: 20ms
`), 0o644))

	stdout, _, err := execute(t, "run", "--config", cfgPath, "--json", "--output", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "CheckedQueue =>")
	assert.Contains(t, stdout, "CheckedQueueNoCheck =>")

	sessions, err := loadReports(out)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.NotEmpty(t, sessions[0].SessionID)
	require.Len(t, sessions[0].Benchmarks, 2)
	for _, b := range sessions[0].Benchmarks {
		assert.Equal(t, b.NumMessages, b.NumMessagesConsumed, "%s lost messages", b.Implementation)
		assert.Equal(t, "20ms", b.TestDuration)
	}

	// A second run appends a session.
	_, _, err = execute(t, "run", "--config", cfgPath, "--json", "--output", out, "--no-check")
	require.NoError(t, err)
	sessions, err = loadReports(out)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Len(t, sessions[1].Benchmarks, 1)
	assert.False(t, sessions[1].Benchmarks[0].InvariantChecks)
}

func TestRunRejectsBadFlags(t *testing.T) {
	_, _, err := execute(t, "run", "--iter", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iterations")
}

func TestRunSessionCounts(t *testing.T) {
	cfg := config.Default()
	cfg.Concurrency = []config.Concurrency{{NumProducers: 1, NumConsumers: 1}}
	cfg.Iterations = 2
	cfg.Duration = 10 * time.Millisecond

	var out, progress bytes.Buffer
	session, err := runSession(&out, &progress, nil, cfg, true)
	require.NoError(t, err)
	assert.Len(t, session.Benchmarks, 4)
	assert.NotEmpty(t, session.SessionTime)
	assert.Equal(t, 2, strings.Count(out.String(), "iteration "))
	assert.NotZero(t, progress.Len(), "progress bar output expected")
}

func TestMarkdownTable(t *testing.T) {
	sessions := []FullReport{
		{Benchmarks: []BenchmarkResult{{Implementation: "ignored", Throughput: 1}}},
		{Benchmarks: []BenchmarkResult{
			{Implementation: "CheckedQueue", NumProducers: 2, NumConsumers: 2, Throughput: 100},
			{Implementation: "CheckedQueueNoCheck", NumProducers: 2, NumConsumers: 2, Throughput: 300},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeMarkdownTable(&buf, sessions))
	table := buf.String()

	assert.NotContains(t, table, "ignored")
	assert.Contains(t, table, "Invariant-Checked")
	assert.Less(t, strings.Index(table, "CheckedQueueNoCheck"), strings.Index(table, "| CheckedQueue "),
		"rows must be sorted by throughput")

	assert.Error(t, writeMarkdownTable(&buf, nil))
}

func TestMarkdownTableCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, appendReport(path, FullReport{
		SessionID:  "s1",
		Benchmarks: []BenchmarkResult{{Implementation: "CheckedQueue", Throughput: 42}},
	}))

	stdout, _, err := execute(t, "markdown-table", "--jsonfile", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "## Last Session Benchmark Summary")
	assert.Contains(t, stdout, "CheckedQueue")

	_, _, err = execute(t, "markdown-table", "--jsonfile", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
