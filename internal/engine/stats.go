package engine

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// printStats reports run performance for tuning worker counts on big
// sequences.
func (e *Engine) printStats(r *Result) {
	fmt.Println("--- [PERFORMANCE REPORT] ---")
	fmt.Printf("Run ID: %s\n", r.RunID)
	fmt.Printf("Total Time: %.2fs\n", r.Elapsed.Seconds())
	fmt.Printf("Workers: %d\n", e.res.Workers)
	if r.Elapsed.Seconds() > 0 {
		fmt.Printf("Frames/sec: %.1f\n", float64(r.Created)/r.Elapsed.Seconds())
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			fmt.Printf("Peak RSS: %.1f MiB\n", float64(mem.RSS)/(1024*1024))
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			fmt.Printf("CPU: %.1f%%\n", cpu)
		}
	}
	fmt.Println("----------------------------")
}
