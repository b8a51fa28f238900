package integrity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Serial prefixes by document type.
const (
	PrefixDocument   = "DOC"
	PrefixInvoice    = "INV"
	PrefixLetterhead = "LTR"
)

// ErrSerialConflict is returned by an Allocator when another writer took the
// number it tried to claim. Callers retry with a fresh allocation.
var ErrSerialConflict = errors.New("serial number already allocated")

// Allocator hands out the next sequence number for a prefix and year. It must
// never return the same number twice for one prefix and year.
type Allocator interface {
	Next(ctx context.Context, prefix string, year int) (int64, error)
}

// FormatSerial renders a serial such as DOC-2025-000123.
func FormatSerial(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, n)
}

// PrefixFor maps a document type to its serial prefix.
func PrefixFor(documentType string) string {
	switch strings.ToLower(strings.TrimSpace(documentType)) {
	case "invoice":
		return PrefixInvoice
	case "letterhead", "letter":
		return PrefixLetterhead
	default:
		return PrefixDocument
	}
}

// MemoryAllocator keeps counters in process memory.
type MemoryAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryAllocator returns an empty allocator.
func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{counters: make(map[string]int64)}
}

// Seed sets the last used number for prefix and year.
func (a *MemoryAllocator) Seed(prefix string, year int, last int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[key(prefix, year)] = last
}

func (a *MemoryAllocator) Next(ctx context.Context, prefix string, year int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	k := key(prefix, year)
	a.counters[k]++
	return a.counters[k], nil
}

func key(prefix string, year int) string {
	return fmt.Sprintf("%s/%d", prefix, year)
}
