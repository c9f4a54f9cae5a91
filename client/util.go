package client

import (
	"sync"

	"golang.org/x/exp/maps"
)

// makes a copy of the list on read so callbacks can be invoked without
// holding the lock. entries are keyed by id because function values are
// not comparable.
type callbackList[T any] struct {
	mutex     sync.Mutex
	callbacks map[Id]T
}

func (self *callbackList[T]) add(callback T) Id {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.callbacks == nil {
		self.callbacks = map[Id]T{}
	}
	callbackId := NewId()
	self.callbacks[callbackId] = callback
	return callbackId
}

func (self *callbackList[T]) remove(callbackId Id) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	delete(self.callbacks, callbackId)
}

func (self *callbackList[T]) get() []T {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return maps.Values(self.callbacks)
}
