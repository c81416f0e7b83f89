// Package obslog is the ambient logging glue for everything around the
// object-table core: boot, shutdown, and the reference port. The core
// itself never logs (per the "no logging from the core" error-handling
// policy); only these external collaborators do, through
// github.com/hashicorp/go-hclog, matching the logger this pack's
// hashicorp/consul member uses throughout.
package obslog

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

var root hclog.Logger

func init() {
	root = hclog.New(&hclog.LoggerOptions{
		Name:  "osal",
		Level: hclog.Info,
		Output: os.Stderr,
	})
}

// Default returns the process-wide root logger.
func Default() hclog.Logger {
	return root
}

// Named returns a named sub-logger of the root, e.g. Named("port") or
// Named("boot"), the way consul's command packages derive sub-loggers for
// each subsystem.
func Named(name string) hclog.Logger {
	return root.Named(name)
}

// SetDefault replaces the process-wide root logger. Intended for embedding
// applications and tests that want to redirect or silence OSAL's ambient
// logging.
func SetDefault(l hclog.Logger) {
	root = l
}
