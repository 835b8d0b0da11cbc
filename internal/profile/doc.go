// Package profile implements the profile-edit flow: a draft of the user's
// editable fields, a staged picture with its preview, and the gateway that
// fetches the profile on open and saves the draft back to the account API.
//
// The draft holder and status are safe for concurrent use. The gateway
// serializes nothing itself; overlapping saves are allowed and only the
// response to the most recently issued save is applied.
package profile
