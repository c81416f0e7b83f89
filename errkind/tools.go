//go:build tools

package errkind

// Pin the stringer generator used by the go:generate directive in kind.go.
import _ "golang.org/x/tools/cmd/stringer"
