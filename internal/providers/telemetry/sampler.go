package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Sample is one telemetry reading.
type Sample struct {
	Time       time.Time `json:"time"`
	CPUPercent float64   `json:"cpu_percent"`
	MemPercent float64   `json:"mem_percent"`
	GPUPercent float64   `json:"gpu_percent,omitempty"`
}

// Sampler produces one reading.
type Sampler interface {
	Sample(ctx context.Context) (Sample, error)
}

// GPUSampler reads GPU utilization. Hardware bindings live in the
// shell, so the host only ever sees this interface.
type GPUSampler interface {
	Utilization(ctx context.Context) (float64, error)
}

// SystemSampler reads CPU and memory utilization from the host OS, plus
// GPU utilization when a gpu sampler is injected.
type SystemSampler struct {
	gpu GPUSampler
}

// NewSystemSampler creates a system sampler. gpu may be nil; the GPU
// field then stays zero.
func NewSystemSampler(gpu GPUSampler) *SystemSampler {
	return &SystemSampler{gpu: gpu}
}

// Sample reads one snapshot of system utilization.
func (s *SystemSampler) Sample(ctx context.Context) (Sample, error) {
	sample := Sample{Time: time.Now()}

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to read cpu utilization: %w", err)
	}
	if len(percents) > 0 {
		sample.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to read memory utilization: %w", err)
	}
	sample.MemPercent = vm.UsedPercent

	if s.gpu != nil {
		util, err := s.gpu.Utilization(ctx)
		if err != nil {
			return Sample{}, fmt.Errorf("failed to read gpu utilization: %w", err)
		}
		sample.GPUPercent = util
	}

	return sample, nil
}
