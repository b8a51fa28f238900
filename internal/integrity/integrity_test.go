package integrity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() Snapshot {
	return Snapshot{
		Number:    "INV-2025-000007",
		IssueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Subtotal:  decimal.RequireFromString("300.00"),
		Tax:       decimal.RequireFromString("48"),
		Discount:  decimal.Zero,
		Total:     decimal.RequireFromString("348"),
		Paid:      decimal.RequireFromString("100"),
		Balance:   decimal.RequireFromString("248"),
		Status:    "partial",
		Notes:     "Thanks",
		UpdatedAt: time.Date(2025, 3, 2, 9, 30, 0, 123, time.UTC),
		Items: []ItemSnapshot{
			{ServiceName: "Hosting", Description: "March", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("100")},
			{ServiceName: "Support", Description: "Hours", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.RequireFromString("50")},
		},
	}
}

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash(snapshot())
	b := ContentHash(snapshot())
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestContentHashIgnoresRepresentation(t *testing.T) {
	s := snapshot()
	s.Subtotal = decimal.RequireFromString("300")
	s.UpdatedAt = s.UpdatedAt.In(time.FixedZone("EAT", 3*3600))
	assert.Equal(t, ContentHash(snapshot()), ContentHash(s))
}

func TestContentHashSensitivity(t *testing.T) {
	base := ContentHash(snapshot())

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"quantity", func(s *Snapshot) { s.Items[0].Quantity = decimal.NewFromInt(2) }},
		{"unit price", func(s *Snapshot) { s.Items[1].UnitPrice = decimal.RequireFromString("50.01") }},
		{"notes", func(s *Snapshot) { s.Notes = "Thanks!" }},
		{"status", func(s *Snapshot) { s.Status = "paid" }},
		{"updated at", func(s *Snapshot) { s.UpdatedAt = s.UpdatedAt.Add(time.Nanosecond) }},
		{"item added", func(s *Snapshot) { s.Items = append(s.Items, ItemSnapshot{ServiceName: "Extra"}) }},
		{"item order", func(s *Snapshot) { s.Items[0], s.Items[1] = s.Items[1], s.Items[0] }},
		{"field shifted between items", func(s *Snapshot) {
			s.Items[0].Description = ""
			s.Items[0].ServiceName = "Hosting|March"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := snapshot()
			s.Items = append([]ItemSnapshot(nil), s.Items...)
			tt.mutate(&s)
			assert.NotEqual(t, base, ContentHash(s))
		})
	}
}

func TestNeedsRegeneration(t *testing.T) {
	s := snapshot()
	hash := ContentHash(s)
	at := time.Now()

	assert.False(t, NeedsRegeneration(hash, &at, s))
	assert.True(t, NeedsRegeneration("", &at, s))
	assert.True(t, NeedsRegeneration(hash, nil, s))
	assert.True(t, NeedsRegeneration(hash, &time.Time{}, s))

	s.Notes = "changed"
	assert.True(t, NeedsRegeneration(hash, &at, s))
}

func TestFormatSerial(t *testing.T) {
	assert.Equal(t, "DOC-2025-000123", FormatSerial("DOC", 2025, 123))
	assert.Equal(t, "INV-2024-1234567", FormatSerial("INV", 2024, 1234567))
}

func TestPrefixFor(t *testing.T) {
	assert.Equal(t, PrefixInvoice, PrefixFor("Invoice"))
	assert.Equal(t, PrefixLetterhead, PrefixFor("letterhead"))
	assert.Equal(t, PrefixDocument, PrefixFor("contract"))
}

func TestMemoryAllocatorIsSequentialPerPrefixAndYear(t *testing.T) {
	a := NewMemoryAllocator()
	a.Seed("DOC", 2025, 122)
	ctx := context.Background()

	n, err := a.Next(ctx, "DOC", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(123), n)

	n, err = a.Next(ctx, "DOC", 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = a.Next(ctx, "INV", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryAllocatorConcurrentUnique(t *testing.T) {
	a := NewMemoryAllocator()
	const workers = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]bool)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := a.Next(context.Background(), "DOC", 2025)
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers)
}

func TestMemoryAllocatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryAllocator().Next(ctx, "DOC", 2025)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDigestKeepsPartBoundaries(t *testing.T) {
	assert.Equal(t, Digest("a", "bc"), Digest("a", "bc"))
	assert.NotEqual(t, Digest("ab", "c"), Digest("a", "bc"))
	assert.NotEqual(t, Digest("a|b"), Digest("a", "b"))
	assert.NotEqual(t, Digest(), Digest(""))
	assert.Len(t, Digest("x"), 64)
}
