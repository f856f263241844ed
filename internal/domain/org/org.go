// Package org holds the organization read model. The register only displays
// organization metadata; nothing in the core depends on its contents.
package org

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when the configured organization does not exist.
var ErrNotFound = errors.New("organization not found")

// Organization is the tenant a register belongs to.
type Organization struct {
	ID   string
	Name string
}

// Repository provides organization metadata lookup.
type Repository interface {
	Get(ctx context.Context) (*Organization, error)
}
