package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

var (
	// MemorySampleRate How often to dump the memory to a file in HZ. Values of less than 1 are recommended to avoid
	// having to sort through too many dump files
	MemorySampleRate = 0.5
)

type memProfiler struct {
	dumpPath  string
	runID     string
	mu        sync.Mutex
	heapDumps [][]byte
	stop      chan struct{}
	done      chan struct{}
}

// startProfiling starts the CPU profiler when cpuProfile is set and the periodic heap dumper when
// memProfileDir is set. The returned teardown flushes both and is safe to call once.
func startProfiling(cpuProfile, memProfileDir string) (func() error, error) {
	var teardowns []func() error

	if cpuProfile != "" {
		cpuProfileFile, err := os.Create(cpuProfile)
		if err != nil {
			return nil, err
		}
		runtime.SetCPUProfileRate(500)
		if err := pprof.StartCPUProfile(cpuProfileFile); err != nil {
			_ = cpuProfileFile.Close()
			return nil, fmt.Errorf("start CPU profiler: %w", err)
		}
		teardowns = append(teardowns, func() error {
			pprof.StopCPUProfile()
			return cpuProfileFile.Close()
		})
	}

	if memProfileDir != "" && MemorySampleRate > 0 {
		profiler := &memProfiler{
			dumpPath: memProfileDir,
			runID:    uuid.New().String()[:8],
			stop:     make(chan struct{}),
			done:     make(chan struct{}),
		}
		go profiler.run()
		teardowns = append(teardowns, profiler.flush)
	}

	return func() error {
		var errs []error
		for _, teardown := range teardowns {
			errs = append(errs, teardown())
		}
		return multierr.Combine(errs...)
	}, nil
}

func (m *memProfiler) run() {
	defer close(m.done)
	ticker := time.NewTicker(time.Duration((1/MemorySampleRate)*1000) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.dump()
		}
	}
}

func (m *memProfiler) dump() {
	w := bytes.NewBuffer(nil)
	if err := pprof.WriteHeapProfile(w); err != nil {
		return
	}
	m.mu.Lock()
	m.heapDumps = append(m.heapDumps, w.Bytes())
	m.mu.Unlock()
}

func (m *memProfiler) flush() error {
	close(m.stop)
	<-m.done
	m.dump()

	if err := os.MkdirAll(m.dumpPath, 0755); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for dIdx, dump := range m.heapDumps {
		path := filepath.Join(m.dumpPath, fmt.Sprintf("mem-%s-%d.mprof", m.runID, dIdx))
		errs = append(errs, os.WriteFile(path, dump, 0644))
	}
	return multierr.Combine(errs...)
}
