// Package idgen supplies opaque unique identifiers for installment
// groups and stored rows. Any source of sufficiently random strings
// satisfies the contract; production uses UUIDv4.
package idgen

import "github.com/google/uuid"

// Generator mints globally unique opaque identifiers.
type Generator interface {
	NewID() string
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) NewID() string { return f() }

// UUID is the production generator (122 random bits per id).
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }
