// Package errkind holds the OSAL error taxonomy: a single enumeration of
// result kinds shared by every registry, with Success == 0 and a distinct
// negative value for every failure kind.
//
// Operations in this module return a Kind directly, the way the FreeRTOS
// port this package is modeled on returns a plain int32 status. Kind itself
// is not an error; its Err method converts it to one, for callers (tests,
// shutdown aggregation) that want conventional error handling.
package errkind

//go:generate stringer -type=Kind -output=kind_string.go

// Kind is an OSAL result code. Success is the zero value; every failure is
// a distinct negative value.
type Kind int32

// Result kinds, per the OSAL error taxonomy.
const (
	Success Kind = -iota

	InvalidPointer
	InvalidID
	InvalidPriority
	InvalidSemValue
	NameTooLong
	NameTaken
	NameNotFound
	NoFreeIDs
	SemFailure
	SemTimeout
	QueueEmpty
	QueueFull
	QueueTimeout
	QueueInvalidSize
	TimerUnavailable
	TimerInvalidArgs
	TimerInternal
	MutexNotOwned
	NotImplemented
	KernelFailure
)

var kindNames = [...]string{
	"OS_SUCCESS",
	"OS_INVALID_POINTER",
	"OS_ERR_INVALID_ID",
	"OS_ERR_INVALID_PRIORITY",
	"OS_ERR_INVALID_SEM_VALUE",
	"OS_ERR_NAME_TOO_LONG",
	"OS_ERR_NAME_TAKEN",
	"OS_ERR_NAME_NOT_FOUND",
	"OS_ERR_NO_FREE_IDS",
	"OS_SEM_FAILURE",
	"OS_SEM_TIMEOUT",
	"OS_QUEUE_EMPTY",
	"OS_QUEUE_FULL",
	"OS_QUEUE_TIMEOUT",
	"OS_QUEUE_INVALID_SIZE",
	"OS_TIMER_ERR_UNAVAILABLE",
	"OS_TIMER_ERR_INVALID_ARGS",
	"OS_TIMER_ERR_INTERNAL",
	"OS_ERR_MUTEX_NOT_OWNED",
	"OS_ERR_NOT_IMPLEMENTED",
	"OS_ERROR",
}

// String returns the ASCII name of the kind, the way OS_GetErrorName does
// for the original numeric codes. Out-of-range values print as
// "OS_ERROR(unknown)" rather than panicking.
func (k Kind) String() string {
	i := int(-k)
	if i < 0 || i >= len(kindNames) {
		return "OS_ERROR(unknown)"
	}
	return kindNames[i]
}

// Ok reports whether k is Success.
func (k Kind) Ok() bool {
	return k == Success
}

// Err adapts k to a conventional error, returning nil for Success. Callers
// that want to use errors.Is or aggregate several Kinds (DeleteAllObjects
// does, with github.com/hashicorp/go-multierror) should use this instead of
// comparing Kind values directly.
func (k Kind) Err() error {
	if k == Success {
		return nil
	}
	return kindError{k}
}

type kindError struct {
	k Kind
}

func (e kindError) Error() string { return e.k.String() }

// Is reports whether target is the same Kind, so errors.Is(err, errkind.NameTaken.Err())
// works without unwrapping by hand.
func (e kindError) Is(target error) bool {
	other, ok := target.(kindError)
	return ok && other.k == e.k
}
