package core

import "github.com/google/uuid"

// NewID generates a unique identifier used for run and event correlation.
func NewID() string { return uuid.NewString() }
