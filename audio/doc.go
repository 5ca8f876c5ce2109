// Package audio manages the exclusive audio capture resource and validates
// encoder parameters.
//
// Capture and encoding themselves are out of scope; the Engine only owns the
// acquire/release lifecycle of the underlying device, with a short doubling
// backoff on acquisition because the OS may not release the device
// immediately after a phone call ends.
package audio
