// Package id provides centralized ID generation for the widget host.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: Enables efficient time-based queries
//   - Prefixed types: Type-specific prefixes for debugging (wdg_*, inst_*, view_*)
//   - Type safety: Separate types prevent ID misuse
//   - Stability: Widget IDs are generated once and persisted across runs
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// WidgetID identifies a widget metadata slot (stable across runs)
type WidgetID string

// InstanceID identifies a live widget instance
type InstanceID string

// ViewID identifies a group-scoped secondary view
type ViewID string

// PreviewID identifies a detached settings-preview instance
type PreviewID string

// ID prefixes for debugging and type identification
const (
	WidgetPrefix   = "wdg"
	InstancePrefix = "inst"
	ViewPrefix     = "view"
	PreviewPrefix  = "prev"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewWidgetID generates a new widget identity
func NewWidgetID() WidgetID {
	return WidgetID(Default().GenerateWithPrefix(WidgetPrefix))
}

// NewInstanceID generates a new instance identity
func NewInstanceID() InstanceID {
	return InstanceID(Default().GenerateWithPrefix(InstancePrefix))
}

// NewViewID generates a new secondary-view identity
func NewViewID() ViewID {
	return ViewID(Default().GenerateWithPrefix(ViewPrefix))
}

// NewPreviewID generates a new preview identity
func NewPreviewID() PreviewID {
	return PreviewID(Default().GenerateWithPrefix(PreviewPrefix))
}

// String methods for ID types
func (id WidgetID) String() string   { return string(id) }
func (id InstanceID) String() string { return string(id) }
func (id ViewID) String() string     { return string(id) }
func (id PreviewID) String() string  { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
