package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"os"
	goruntime "runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker periodically logs process-level health (RSS, CPU, heap,
// goroutines) and feeds the prometheus gauges.
type TelemetryWorker struct {
	log      *slog.Logger
	metrics  *observability.Metrics
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, metrics *observability.Metrics, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, metrics: metrics, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report(proc)
		}
	}
}

func (w *TelemetryWorker) report(proc *process.Process) {
	var mem goruntime.MemStats
	goruntime.ReadMemStats(&mem)

	var rss uint64
	if info, err := proc.MemoryInfo(); err == nil {
		rss = info.RSS
	}
	cpu, _ := proc.CPUPercent()

	w.metrics.SetResidentMemory(rss)
	w.log.Info("Process telemetry",
		"rss_mb", rss/1024/1024,
		"cpu_percent", cpu,
		"heap_mb", mem.Alloc/1024/1024,
		"num_gc", mem.NumGC,
		"goroutines", goruntime.NumGoroutine())
}
