// Package biometric gates access to a stored session behind a local
// user-presence check.
//
// A Gate answers two questions: whether the device can run a check at
// all (hardware present and a credential enrolled) and whether the user
// passes one. Authenticate combines them and never prompts on a device
// that cannot complete the check.
//
// Providers:
//
//   - fprintd: fingerprint verification through the Linux fprintd tools
//   - passcode: an Argon2id-hashed passcode typed at the terminal
//   - none: reports no hardware; protected commands stay locked
package biometric
