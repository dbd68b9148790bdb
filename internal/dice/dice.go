// Package dice provides the single source of randomness for combat.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
)

// ErrInvalidDiceSpec is returned when a roll asks for a non-positive number
// of dice or sides.
var ErrInvalidDiceSpec = errors.New("dice: count and sides must be positive")

// Source is the randomness provider for rolls.
type Source interface {
	// Intn returns a random int in [0, n). n is always > 0.
	Intn(n int) int
}

// Spec describes a group of identical dice, e.g. 2d8.
type Spec struct {
	Count int `json:"count" yaml:"count"`
	Sides int `json:"sides" yaml:"sides"`
}

// D returns the spec for count dice of the given sides.
func D(count, sides int) Spec {
	return Spec{Count: count, Sides: sides}
}

// IsZero reports whether the spec is unset.
func (s Spec) IsZero() bool {
	return s.Count == 0 && s.Sides == 0
}

// Valid reports whether the spec can be rolled.
func (s Spec) Valid() bool {
	return s.Count > 0 && s.Sides > 0
}

// Doubled returns the spec with twice as many dice. Sides are unchanged.
func (s Spec) Doubled() Spec {
	return Spec{Count: s.Count * 2, Sides: s.Sides}
}

// String returns the spec in NdS notation.
func (s Spec) String() string {
	return fmt.Sprintf("%dd%d", s.Count, s.Sides)
}

// Roller rolls dice against a Source.
type Roller struct {
	src Source
}

// New creates a roller over the given source.
func New(src Source) *Roller {
	return &Roller{src: src}
}

// NewRoller creates a roller over a math/rand source with the given seed.
func NewRoller(seed int64) *Roller {
	return New(rand.New(rand.NewSource(seed)))
}

// Roll returns the sum of count independent draws from 1..sides.
// Nothing is drawn from the source when the arguments are invalid.
func (r *Roller) Roll(count, sides int) (int, error) {
	if count <= 0 || sides <= 0 {
		return 0, fmt.Errorf("roll %dd%d: %w", count, sides, ErrInvalidDiceSpec)
	}
	total := 0
	for i := 0; i < count; i++ {
		total += r.src.Intn(sides) + 1
	}
	return total, nil
}

// RollSpec rolls the dice described by spec.
func (r *Roller) RollSpec(spec Spec) (int, error) {
	return r.Roll(spec.Count, spec.Sides)
}

// D20 rolls a single twenty-sided die.
func (r *Roller) D20() int {
	return r.src.Intn(20) + 1
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
