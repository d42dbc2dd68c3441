package qdev

import "github.com/google/uuid"

// idAllocator hands out a stable internal key for devices that were not
// given a user-assigned id, so that internal bookkeeping (the firmware
// path cache) has something to key off of regardless of whether the
// device is addressable by id.
type idAllocator struct {
	internal map[*Device]string
}

func newIDAllocator() *idAllocator {
	return &idAllocator{internal: map[*Device]string{}}
}

func (a *idAllocator) keyFor(dev *Device) string {
	if dev.id != "" {
		return dev.id
	}
	if k, ok := a.internal[dev]; ok {
		return k
	}
	k := uuid.NewString()
	a.internal[dev] = k
	return k
}

func (a *idAllocator) forget(dev *Device) {
	delete(a.internal, dev)
}
