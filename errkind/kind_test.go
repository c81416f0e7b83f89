package errkind

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccess_IsZeroValue(t *testing.T) {
	var k Kind
	assert.Equal(t, Success, k)
	assert.True(t, k.Ok())
}

func TestString_KnownKinds(t *testing.T) {
	assert.Equal(t, "OS_SUCCESS", Success.String())
	assert.Equal(t, "OS_ERR_NAME_TAKEN", NameTaken.String())
	assert.Equal(t, "OS_ERROR", KernelFailure.String())
}

func TestString_OutOfRangeDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = Kind(-1000).String()
	})
}

func TestErr_NilOnSuccess(t *testing.T) {
	assert.NoError(t, Success.Err())
}

func TestErr_DistinguishableViaErrorsIs(t *testing.T) {
	err := NameTaken.Err()
	assert.True(t, errors.Is(err, NameTaken.Err()))
	assert.False(t, errors.Is(err, NoFreeIDs.Err()))
}

func TestKinds_AreDistinctNegativeValues(t *testing.T) {
	seen := map[Kind]bool{}
	kinds := []Kind{
		Success, InvalidPointer, InvalidID, InvalidPriority, InvalidSemValue,
		NameTooLong, NameTaken, NameNotFound, NoFreeIDs, SemFailure, SemTimeout,
		QueueEmpty, QueueFull, QueueTimeout, QueueInvalidSize, TimerUnavailable,
		TimerInvalidArgs, TimerInternal, MutexNotOwned, NotImplemented, KernelFailure,
	}
	for _, k := range kinds {
		assert.False(t, seen[k], "duplicate kind value %d", k)
		seen[k] = true
		if k != Success {
			assert.Less(t, int32(k), int32(0))
		}
	}
}
