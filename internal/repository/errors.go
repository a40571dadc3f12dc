// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrPhoneExists and ErrEmailExists let the signup handler
// report which identifier collided, while ErrTokenInvalid covers any
// token lookup that must surface as an HTTP 401.
package repository

import "errors"

// ErrPhoneExists is returned when signup hits the unique index on
// users.phone. Handlers translate this into an HTTP 400 response.
var ErrPhoneExists = errors.New("phone already registered")

// ErrEmailExists is returned when signup hits the unique index on
// users.email. Handlers translate this into an HTTP 400 response.
var ErrEmailExists = errors.New("email already registered")

// ErrTokenInvalid is returned when a token lookup finds no live row
// of the requested kind. Handlers translate this into HTTP 401; the
// message deliberately does not distinguish absent from expired.
var ErrTokenInvalid = errors.New("invalid or expired token")
