package runtime

import (
	"math/rand"
	"sync"
)

// processRand is the shared, mutex-guarded source the Uncontrolled context
// draws from; math/rand's top-level functions are themselves guarded this
// way internally, but we own the source explicitly so it isn't affected by
// a global rand.Seed call elsewhere in the process.
var processRand = struct {
	mu  sync.Mutex
	rng *rand.Rand
}{rng: rand.New(rand.NewSource(1))}

func randIntn(max int) int {
	processRand.mu.Lock()
	defer processRand.mu.Unlock()

	return processRand.rng.Intn(max)
}
