// Package timing measures elapsed wall-clock and process CPU time.
package timing

import (
	"fmt"
	"time"
)

// Sample is a point-in-time reading of both clocks.
type Sample struct {
	Wall time.Time
	CPU  time.Duration
}

// Now returns the current Sample.
//
// CPU is the user plus system time consumed by the process so far, or 0 if the platform cannot report it.
func Now() Sample {
	return Sample{Wall: time.Now(), CPU: cpuTime()}
}

// Elapsed is the difference between two Samples.
type Elapsed struct {
	Wall time.Duration
	CPU  time.Duration
}

// Since returns the Elapsed time from s to now.
func Since(s Sample) Elapsed {
	return Now().Sub(s)
}

// Sub returns s - earlier.
func (s Sample) Sub(earlier Sample) Elapsed {
	return Elapsed{Wall: s.Wall.Sub(earlier.Wall), CPU: s.CPU - earlier.CPU}
}

// Ratio returns CPU time divided by wall-clock time; above 1 means more than one processor was busy on average.
//
// Returns 0 if no wall-clock time elapsed.
func (e Elapsed) Ratio() float64 {
	if e.Wall <= 0 {
		return 0
	}

	return float64(e.CPU) / float64(e.Wall)
}

// String formats e as "<cpu> ms CPU in <wall> ms, ratio <ratio>".
func (e Elapsed) String() string {
	return fmt.Sprintf("%d ms CPU in %d ms, ratio %f", e.CPU.Milliseconds(), e.Wall.Milliseconds(), e.Ratio())
}
