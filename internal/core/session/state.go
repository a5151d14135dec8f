package session

import (
	"fmt"
	"strings"
)

// State is the session lifecycle state.
type State int

const (
	Unknown State = iota
	CheckingToken
	AwaitingBiometric
	Authenticated
	Unauthenticated
)

var stateNames = [...]string{
	Unknown:           "Unknown",
	CheckingToken:     "CheckingToken",
	AwaitingBiometric: "AwaitingBiometric",
	Authenticated:     "Authenticated",
	Unauthenticated:   "Unauthenticated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Route is the screen the client should show for a state.
type Route int

const (
	// RouteNone means the state is still being resolved.
	RouteNone Route = iota
	RouteSignIn
	RouteUnlock
	RouteCatalog
)

func (r Route) String() string {
	switch r {
	case RouteSignIn:
		return "signin"
	case RouteUnlock:
		return "unlock"
	case RouteCatalog:
		return "catalog"
	default:
		return "none"
	}
}

// RouteFor maps a state to its route.
func RouteFor(s State) Route {
	switch s {
	case Unauthenticated:
		return RouteSignIn
	case AwaitingBiometric:
		return RouteUnlock
	case Authenticated:
		return RouteCatalog
	default:
		return RouteNone
	}
}

// Policy decides what Unlock does on a device without a usable gate.
type Policy string

const (
	// PolicyAlways requires a successful challenge. A device without
	// biometric support cannot unlock.
	PolicyAlways Policy = "always"

	// PolicyIfAvailable accepts the stored token alone when the device
	// has no hardware or enrolment.
	PolicyIfAvailable Policy = "if_available"
)

// ParsePolicy parses a policy name. Empty means PolicyAlways.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAlways:
		return PolicyAlways, nil
	case PolicyIfAvailable:
		return PolicyIfAvailable, nil
	default:
		return "", fmt.Errorf("unknown biometric policy %q (want %s or %s)", s, PolicyAlways, PolicyIfAvailable)
	}
}
