package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// BenchmarkResult holds results for one test run.
type BenchmarkResult struct {
	Implementation      string  `json:"implementation"`
	InvariantChecks     bool    `json:"invariant_checks"`
	NumProducers        int     `json:"num_producers"`
	NumConsumers        int     `json:"num_consumers"`
	NumMessages         int64   `json:"num_messages"`          // produced count
	NumMessagesConsumed int64   `json:"num_messages_consumed"` // consumed count
	TestDuration        string  `json:"test_duration"`         // e.g. "10s"
	ActualElapsed       string  `json:"actual_elapsed"`        // measured time
	Throughput          float64 `json:"throughput_msgs_sec"`   // based on consumed count
	Timestamp           int64   `json:"timestamp"`
	GoVersion           string  `json:"go_version"`
}

// SystemInfo holds system information.
type SystemInfo struct {
	NumCPU      int     `json:"num_cpu"`
	CPUModel    string  `json:"cpu_model,omitempty"`
	CPUSpeedMHz float64 `json:"cpu_speed_mhz,omitempty"`
	GOARCH      string  `json:"go_arch"`
	TotalMemory uint64  `json:"total_memory_bytes,omitempty"`
}

// FullReport represents a complete test session.
type FullReport struct {
	SessionID   string            `json:"session_id"`
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

// gatherSystemInfo collects basic CPU and memory details.
func gatherSystemInfo() SystemInfo {
	var cpuModel string
	var cpuSpeed float64
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		cpuModel = infos[0].ModelName
		cpuSpeed = infos[0].Mhz
	}

	var totalMemory uint64
	if vm, err := mem.VirtualMemory(); err == nil {
		totalMemory = vm.Total
	}

	return SystemInfo{
		NumCPU:      runtime.NumCPU(),
		CPUModel:    cpuModel,
		CPUSpeedMHz: cpuSpeed,
		GOARCH:      runtime.GOARCH,
		TotalMemory: totalMemory,
	}
}

// loadReports reads all sessions from filename. A missing file is not an error.
func loadReports(filename string) ([]FullReport, error) {
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", filename, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var sessions []FullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal %q: %w", filename, err)
	}
	return sessions, nil
}

// appendReport appends the session to the JSON array stored in filename.
func appendReport(filename string, session FullReport) error {
	previous, err := loadReports(filename)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(append(previous, session), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", filename, err)
	}
	return nil
}

// writeMarkdownTable renders the last session in sessions as a Markdown table.
func writeMarkdownTable(w io.Writer, sessions []FullReport) error {
	if len(sessions) == 0 {
		return errors.New("no sessions found")
	}
	last := sessions[len(sessions)-1]

	meta := make(map[string]Implementation)
	for _, impl := range getImplementations() {
		meta[impl.name] = impl
	}

	rows := append([]BenchmarkResult(nil), last.Benchmarks...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Throughput > rows[j].Throughput
	})

	fmt.Fprintln(w, "## Last Session Benchmark Summary")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Implementation           | Features                    | Producers | Consumers | Throughput (msgs/sec) |")
	fmt.Fprintln(w, "|--------------------------|-----------------------------|-----------|-----------|-----------------------|")
	for _, r := range rows {
		features := strings.Join(meta[r.Implementation].features, ", ")
		fmt.Fprintf(w, "| %-24s | %-27s | %9d | %9d | %21.0f |\n",
			r.Implementation, features, r.NumProducers, r.NumConsumers, r.Throughput)
	}
	return nil
}
