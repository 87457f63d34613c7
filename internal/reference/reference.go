// Package reference issues human-presentable booking references and
// gateway-style transaction ids. Uniqueness is probabilistic; the bookings
// table enforces it with a unique constraint.
package reference

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

const alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces booking references of the form THR-YYYYMMDD-XXXXX.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Next returns a fresh booking reference, e.g. THR-20251126-A3B9C.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return "THR-" + g.now().Format("20060102") + "-" + g.random(5)
}

// NextTransactionID returns a gateway-style transaction id,
// e.g. TXN20251126153000A3B9C1.
func (g *Generator) NextTransactionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return "TXN" + g.now().Format("20060102150405") + g.random(6)
}

func (g *Generator) random(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(alphanumericChars[g.rng.Intn(len(alphanumericChars))])
	}
	return sb.String()
}
