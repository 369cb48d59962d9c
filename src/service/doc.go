// Package service composes the HTTP server of a node out of named modules.
//
// Each module is mounted under /<name>/ and contributes a set of routes.
// Registration is atomic: a module whose routes collide with anything
// already registered is rejected as a whole and leaves the App unchanged.
// The /healthcheck and /version routes are always present.
package service
