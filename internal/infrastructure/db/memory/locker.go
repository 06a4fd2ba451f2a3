package memory

import (
	"context"
	"hash/fnv"
)

const defaultStripes = 64

// StripedLocker is a ports.KeyedLocker over a fixed set of lock slots. Keys
// are mapped to slots with fnv, so two keys may share a slot but one key
// always maps to the same one.
type StripedLocker struct {
	slots []chan struct{}
}

func NewStripedLocker(stripes int) *StripedLocker {
	if stripes <= 0 {
		stripes = defaultStripes
	}
	l := &StripedLocker{slots: make([]chan struct{}, stripes)}
	for i := range l.slots {
		l.slots[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *StripedLocker) Lock(ctx context.Context, key string) (func(), error) {
	h := fnv.New32a()
	h.Write([]byte(key))
	slot := l.slots[h.Sum32()%uint32(len(l.slots))]

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
