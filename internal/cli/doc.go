// Package cli implements the runreward command line: course browsing,
// accounts, favorites, the administrator commands and data management.
//
// Every invocation loads the configuration, opens the configured store,
// runs one command and closes the store again. The current session is kept
// in the store, so a login survives between invocations until its token
// expires.
package cli
