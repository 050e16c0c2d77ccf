package server

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats reports resource usage of the server process.
type ProcessStats struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	Goroutines int     `json:"goroutines"`
}

func readProcessStats() (ProcessStats, error) {
	pid := int32(os.Getpid())
	p, err := process.NewProcess(pid)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("process lookup: %w", err)
	}

	memInfo, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, fmt.Errorf("memory info: %w", err)
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return ProcessStats{}, fmt.Errorf("cpu percent: %w", err)
	}

	return ProcessStats{
		PID:        pid,
		RSSBytes:   memInfo.RSS,
		CPUPercent: cpuPercent,
		Goroutines: runtime.NumGoroutine(),
	}, nil
}
