package inventory

import (
	"hash/fnv"
	"sync"
)

// keyedLocks provides per-product mutual exclusion, striped so the lock table
// stays fixed-size. Mutations on different products almost never contend;
// mutations on the same product always serialize.
type keyedLocks struct {
	stripes []sync.Mutex
}

const lockStripes = 64

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{stripes: make([]sync.Mutex, lockStripes)}
}

func (k *keyedLocks) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &k.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu
}
