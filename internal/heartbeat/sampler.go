package heartbeat

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// processSampler measures the current process through gopsutil.
type processSampler struct {
	proc *process.Process
}

// NewProcessSampler returns a sampler bound to the current process.
func NewProcessSampler() (Sampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open current process: %w", err)
	}
	return &processSampler{proc: proc}, nil
}

func (s *processSampler) Sample() (Sample, error) {
	var sample Sample

	cpu, err := s.proc.CPUPercent()
	if err != nil {
		return Sample{}, fmt.Errorf("cpu percent: %w", err)
	}
	sample.CPUPercent = cpu

	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return Sample{}, fmt.Errorf("memory info: %w", err)
	}
	sample.RSSBytes = mem.RSS

	createdMs, err := s.proc.CreateTime()
	if err != nil {
		return Sample{}, fmt.Errorf("create time: %w", err)
	}
	sample.Uptime = time.Since(time.UnixMilli(createdMs))

	return sample, nil
}
