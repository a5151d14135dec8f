// Package catalog implements the book screens' behaviour independent of
// any UI: form validation, the CRUD service over the authenticated HTTP
// client, and a per-action operation state with an in-flight guard.
//
// Every service call checks the session first and validates forms before
// touching the network, so an invalid form or a locked session never
// produces a request.
package catalog
