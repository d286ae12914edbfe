package service

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"sync"
	"time"
)

var protocolPattern = regexp.MustCompile(`^\d{13}$`)

// ValidProtocol reports whether s has the 13-digit YYYYMMDDNNNNN shape.
func ValidProtocol(s string) bool {
	return protocolPattern.MatchString(s)
}

// ProtocolGenerator produces tracking codes from the local date plus a
// 5-digit random suffix. It does not guarantee uniqueness.
type ProtocolGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	rand *rand.Rand
}

// NewProtocolGenerator creates a generator over the wall clock.
func NewProtocolGenerator() *ProtocolGenerator {
	return NewProtocolGeneratorWith(time.Now, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)))
}

// NewProtocolGeneratorWith allows a fixed clock and random source.
func NewProtocolGeneratorWith(now func() time.Time, r *rand.Rand) *ProtocolGenerator {
	return &ProtocolGenerator{now: now, rand: r}
}

// Generate returns a new protocol such as 2026101904217.
func (g *ProtocolGenerator) Generate() string {
	g.mu.Lock()
	suffix := g.rand.IntN(100000)
	g.mu.Unlock()

	now := g.now().Local()
	return fmt.Sprintf("%04d%02d%02d%05d", now.Year(), int(now.Month()), now.Day(), suffix)
}
