// Package connection is the authenticated HTTP transport between
// booklend-cli and the catalog service.
//
// Every request reads the session token fresh from the token store, so a
// logout takes effect on the very next call. The client classifies each
// outcome:
//
//   - no stored token: no request is sent; the session is rejected
//   - transport failure: domain.ErrTransport
//   - 401, or 403 naming an invalid or expired token: the auth rejection
//     handler runs (the session manager logs out) and domain.ErrAuthRejected
//     is returned
//   - any other status: returned verbatim as a Response for the caller
//
// There are no automatic retries.
package connection
