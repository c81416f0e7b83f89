package osal

import (
	"sync"

	"github.com/zakdam/osal-1/errkind"
)

// slotTable is the shape every typed registry's slot array presents to the
// shared registry primitive of spec §4.1. Implementations hold their own
// mutex and their own concrete slot slice; these methods must only be
// called with that mutex held.
type slotTable interface {
	capacity() int
	isFree(i int) bool
	nameAt(i int) string
	// reserveAt marks slot i non-free. All other fields are left at their
	// zero value; reserveByName then records the name with commitAt.
	reserveAt(i int)
	// commitAt populates the name and creator of a freshly reserved slot.
	// Type-specific fields are set by the caller separately, still under
	// the same lock acquisition.
	commitAt(i int, name string, creator int)
	// releaseAt zeroes the slot and marks it free.
	releaseAt(i int)
}

// reserveByName implements spec §4.1 operation 1: under the table's lock,
// find the first free slot, then scan for a name collision among allocated
// slots. Marking the chosen slot non-free and recording its name inside the
// same lock acquisition as the collision scan is what prevents two
// concurrent creators with the same name from both succeeding: the second
// one's scan already sees the first one's reserved name. The creator is
// filled in later by the caller's own commitAt.
func reserveByName(mu *sync.Mutex, t slotTable, maxName int, name string) (int, errkind.Kind) {
	if len(name) >= maxName {
		return 0, errkind.NameTooLong
	}
	mu.Lock()
	defer mu.Unlock()

	id := -1
	for i := 0; i < t.capacity(); i++ {
		if t.isFree(i) {
			id = i
			break
		}
	}
	if id < 0 {
		return 0, errkind.NoFreeIDs
	}
	for i := 0; i < t.capacity(); i++ {
		if !t.isFree(i) && t.nameAt(i) == name {
			return 0, errkind.NameTaken
		}
	}
	t.reserveAt(id)
	t.commitAt(id, name, 0)
	return id, errkind.Success
}

// lookupByName implements spec §4.1 operation 4.
func lookupByName(mu *sync.Mutex, t slotTable, name string) (int, errkind.Kind) {
	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < t.capacity(); i++ {
		if !t.isFree(i) && t.nameAt(i) == name {
			return i, errkind.Success
		}
	}
	return 0, errkind.NameNotFound
}

// nameByID is the reverse of lookupByName (OS_IdentifierToName in the
// original), added per SPEC_FULL.md §D.3.
func nameByID(mu *sync.Mutex, t slotTable, id int) (string, errkind.Kind) {
	mu.Lock()
	defer mu.Unlock()
	if id < 0 || id >= t.capacity() || t.isFree(id) {
		return "", errkind.InvalidID
	}
	return t.nameAt(id), errkind.Success
}

// validID implements spec §4.1 operation 3.
func validID(mu *sync.Mutex, t slotTable, id int) bool {
	mu.Lock()
	defer mu.Unlock()
	return id >= 0 && id < t.capacity() && !t.isFree(id)
}

// creatorFinder resolves the calling task's id for the "creator" field
// every slot records. *TaskRegistry implements this; other registries hold
// a reference to the shared task registry. The returned id is the task
// registry's capacity (the scan's past-the-end index, per spec §9) when the
// caller is not a registered task.
type creatorFinder interface {
	currentTaskID() int
}
