//go:build !baremetal

package transport

import "fmt"

const (
	BackendAlbenik = "albenik"
	BackendBugST   = "bugst"
)

// New returns an unconfigured transport for the named backend.
func New(backend string) (Transport, error) {
	switch backend {
	case "", BackendAlbenik:
		return &Serial{}, nil
	case BackendBugST:
		return &BugST{}, nil
	default:
		return nil, fmt.Errorf("unknown transport backend %q", backend)
	}
}
