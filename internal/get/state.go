// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package get

// State is a phase of a get run.
type State int

const (
	StateIdle State = iota
	StateSetup
	StateScanning
	StatePerFile
	StateTeardown
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSetup:
		return "setup"
	case StateScanning:
		return "scanning"
	case StatePerFile:
		return "per-file"
	case StateTeardown:
		return "teardown"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}
