package services

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ProductIDPrefix marks service-generated product identifiers.
const ProductIDPrefix = "oS-"

// ProductIDGenerator issues product ids from a millisecond timestamp plus
// monotonic random entropy. Ids from one generator are strictly increasing.
type ProductIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewProductIDGenerator creates a generator seeded from crypto/rand.
func NewProductIDGenerator() *ProductIDGenerator {
	return &ProductIDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Next returns a fresh product id such as "oS-01JD5X...".
func (g *ProductIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ProductIDPrefix + ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
