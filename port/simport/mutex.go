package simport

import (
	"sync"

	"github.com/zakdam/osal-1/port"
)

// mutexHandle is a recursive mutex: the owning task may lock it repeatedly
// and must unlock it the same number of times before another task can
// acquire it.
type mutexHandle struct {
	name string
	sem  chan struct{} // 1-buffered; a token present means unlocked

	meta    sync.Mutex
	ownerID int64 // goroutine id of the owner; identifies the caller even when it isn't a registered task
	held    bool
	depth   int
}

func (s *Sim) MutexCreate(name string) (port.MutexHandle, error) {
	h := &mutexHandle{name: name, sem: make(chan struct{}, 1)}
	h.sem <- struct{}{}
	return h, nil
}

func (s *Sim) MutexDestroy(h port.MutexHandle) error {
	return nil
}

func (s *Sim) MutexLock(h port.MutexHandle) error {
	mh := h.(*mutexHandle)
	gid := goroutineID()

	mh.meta.Lock()
	if mh.held && mh.ownerID == gid {
		mh.depth++
		mh.meta.Unlock()
		return nil
	}
	mh.meta.Unlock()

	<-mh.sem

	mh.meta.Lock()
	mh.held = true
	mh.ownerID = gid
	mh.depth = 1
	mh.meta.Unlock()
	return nil
}

func (s *Sim) MutexUnlock(h port.MutexHandle) error {
	mh := h.(*mutexHandle)
	gid := goroutineID()

	mh.meta.Lock()
	if !mh.held || mh.ownerID != gid {
		mh.meta.Unlock()
		return port.ErrNotOwner
	}
	mh.depth--
	release := mh.depth == 0
	if release {
		mh.held = false
	}
	mh.meta.Unlock()

	if release {
		mh.sem <- struct{}{}
	}
	return nil
}
