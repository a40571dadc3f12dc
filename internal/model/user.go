package model

import "time"

// Role values stored in users.role. Signup always creates a farmer;
// the other roles are assigned out of band.
const (
	RoleFarmer = "farmer"
	RoleExpert = "expert"
	RoleAdmin  = "admin"
)

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Phone is the primary login identifier and is unique. Email is
// optional; when present it is unique as well and can also be used
// to log in. The profile fields (State, District, Location,
// Language) are opaque to the auth core and only surfaced by the
// profile endpoints.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Phone        – unique phone number (login identifier).
//  Email        – optional unique email (empty string when absent).
//  PasswordHash – bcrypt hashed password.
//  Role         – farmer, expert or admin.
//  State        – state of residence.
//  District     – district within the state.
//  Location     – city or village name (used for weather lookups).
//  Language     – preferred language code (e.g. "hi", "kn").
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Phone        string    // users.phone
	Email        string    // users.email (nullable)
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	State        string    // users.state
	District     string    // users.district
	Location     string    // users.location
	Language     string    // users.language
	CreatedAt    time.Time // users.created_at
}
