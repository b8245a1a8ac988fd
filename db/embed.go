// Package db provides the embedded starter catalog for seeding.
package db

import _ "embed"

// SeedProducts contains the starter wine catalog as JSON. The seed tool
// falls back to it when no products file is present on disk.
//
//go:embed seed/products.json
var SeedProducts []byte
