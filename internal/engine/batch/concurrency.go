// internal/engine/batch/concurrency.go
package batch

import (
	"runtime"
)

// OptimalConcurrency estimates how many records can render at once from CPU
// count and free memory, capped at maxTabs.
func OptimalConcurrency(maxTabs int) int {
	numCPU := runtime.NumCPU()

	// Rendering is mostly waiting on the network and the settle delay.
	optimal := numCPU * 2

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	availMB := (m.Sys - m.Alloc) / 1024 / 1024

	// Assume ~150MB per open tab with a fully rendered landing page
	maxByMemory := int(availMB / 150)

	if maxByMemory > 0 && maxByMemory < optimal {
		optimal = maxByMemory
	}
	return clampWorkers(optimal, maxTabs)
}

// clampWorkers bounds n to [1, maxTabs]. A worker without a free tab would
// only wait in Browser.Acquire.
func clampWorkers(n, maxTabs int) int {
	if maxTabs > 0 && n > maxTabs {
		n = maxTabs
	}
	if n < 1 {
		n = 1
	}
	return n
}
