// Package gamedata provides embedded game data and utilities for loading it.
package gamedata

import "embed"

// dataFS embeds the data tables shipped with the binary.
//
//go:embed *.json *.yaml
var dataFS embed.FS
