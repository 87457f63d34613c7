package reference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextFormat(t *testing.T) {
	g := NewGenerator()
	g.now = func() time.Time {
		return time.Date(2025, 11, 26, 15, 30, 0, 0, time.UTC)
	}

	ref := g.Next()
	assert.Len(t, ref, len("THR-20251126-XXXXX"))
	assert.Equal(t, "THR-20251126-", ref[:13])
	for _, c := range ref[13:] {
		assert.Contains(t, alphanumericChars, string(c))
	}
}

func TestNextTransactionIDFormat(t *testing.T) {
	g := NewGenerator()
	g.now = func() time.Time {
		return time.Date(2025, 11, 26, 15, 30, 0, 0, time.UTC)
	}

	txn := g.NextTransactionID()
	assert.Equal(t, "TXN20251126153000", txn[:17])
	assert.Len(t, txn, 23)
}

func TestNextIsUnlikelyToRepeat(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := g.Next()
		assert.False(t, seen[ref], "reference repeated: %s", ref)
		seen[ref] = true
	}
}
