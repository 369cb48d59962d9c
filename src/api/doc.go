// Package api holds the state shared between the HTTP modules and the update
// loop, and builds the submit, availability and status modules over it.
//
// Handlers take the state's read lock for the duration of a request. The
// update loop takes the write lock to apply an event, so a request never
// observes a half-applied event.
package api
