package numbering

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryCounter struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{seqs: make(map[string]int64)}
}

func (m *memoryCounter) Next(_ context.Context, docType string, year int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s_%d", docType, year)
	m.seqs[key]++
	return m.seqs[key], nil
}

func (m *memoryCounter) Snapshot(_ context.Context, year int) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64)
	suffix := fmt.Sprintf("_%d", year)
	for key, seq := range m.seqs {
		if len(key) > len(suffix) && key[len(key)-len(suffix):] == suffix {
			out[key[:len(key)-len(suffix)]] = seq
		}
	}
	return out, nil
}

func TestFormat(t *testing.T) {
	at := time.Date(2025, time.August, 28, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "003/KNC/INV/VIII/2025", Format(3, "KNC", DocInvoice, at))
	require.Equal(t, "012/KNC/P-INV/I/2026", Format(12, "KNC", DocProforma, time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "001/KNC/BAST/XII/2025", Format(1, "KNC", DocHandover, time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)))
}

func TestAllocateSequences(t *testing.T) {
	svc := NewService(newMemoryCounter())
	ctx := context.Background()
	at := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	first, err := svc.Allocate(ctx, DocQuotation, "KNC", at)
	require.NoError(t, err)
	require.Equal(t, "001/KNC/Q/III/2025", first)

	second, err := svc.Allocate(ctx, DocQuotation, "KNC", at)
	require.NoError(t, err)
	require.Equal(t, "002/KNC/Q/III/2025", second)

	// A different year restarts the sequence.
	nextYear, err := svc.Allocate(ctx, DocQuotation, "KNC", at.AddDate(1, 0, 0))
	require.NoError(t, err)
	require.Equal(t, "001/KNC/Q/III/2026", nextYear)

	_, err = svc.Allocate(ctx, "nota", "KNC", at)
	require.Error(t, err)
}

func TestAllocateConcurrentDistinct(t *testing.T) {
	svc := NewService(newMemoryCounter())
	at := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	const workers = 32
	results := make(chan string, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.Allocate(context.Background(), DocInvoice, "KNC", at)
			if err != nil {
				errs <- err
				return
			}
			results <- num
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	seen := make(map[string]bool)
	for num := range results {
		require.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	require.Len(t, seen, workers)
}

func TestPeekDoesNotAdvance(t *testing.T) {
	svc := NewService(newMemoryCounter())
	ctx := context.Background()
	at := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)

	_, err := svc.Allocate(ctx, DocInvoice, "KNC", at)
	require.NoError(t, err)
	_, err = svc.Allocate(ctx, DocInvoice, "KNC", at)
	require.NoError(t, err)
	_, err = svc.Allocate(ctx, DocPurchaseOrder, "KNC", at)
	require.NoError(t, err)

	counters, err := svc.Peek(ctx, 2025)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{DocInvoice: 2, DocPurchaseOrder: 1}, counters)

	again, err := svc.Peek(ctx, 2025)
	require.NoError(t, err)
	require.Equal(t, counters, again)
}
