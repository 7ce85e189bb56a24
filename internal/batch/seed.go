package batch

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// UnitSeed derives the RNG seed for a single generation unit. Seeds depend
// only on the task type and unit index, so a resumed or re-sharded run
// reproduces the exact same scenes and samples.
func UnitSeed(taskType string, index int) int64 {
	return int64(xxhash.Sum64String(fmt.Sprintf("%s:%d", taskType, index)))
}
