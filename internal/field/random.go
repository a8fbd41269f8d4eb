package field

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// SeedValue derives a stable source seed from a root seed and a label so that
// independent consumers of one root seed do not share a sequence.
func SeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewRand returns a generator seeded from rootSeed and label, or from the
// clock when rootSeed is empty.
func NewRand(rootSeed, label string) *rand.Rand {
	if rootSeed == "" {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(SeedValue(rootSeed, label)))
}
