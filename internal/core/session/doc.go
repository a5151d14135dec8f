// Package session owns the client's authentication lifecycle.
//
// The Manager is the single source of truth for whether the user may
// reach catalog operations. State lives in memory only and is rebuilt
// from the token store on every process start:
//
//	Unknown ──Start──▶ CheckingToken ──token──▶ AwaitingBiometric ──Unlock──▶ Authenticated
//	                         │                         ▲                          │
//	                         └──no token──▶ Unauthenticated ──SignIn──┘    Logout / auth rejected
//	                                              ▲                               │
//	                                              └───────────────────────────────┘
//
// A token alone never grants access: the biometric gate must pass first,
// unless the policy is if_available and the device has no gate to offer.
package session
