package market

import (
	"context"
	"sync"

	"stockit/models"
)

// Memo deduplicates quote lookups for the lifetime of one request. It is safe
// for concurrent use; concurrent callers asking for the same symbol share a
// single upstream call.
type Memo struct {
	p     Provider
	mu    sync.Mutex
	calls map[string]*memoCall
}

type memoCall struct {
	done  chan struct{}
	quote models.Quote
	err   error
}

func NewMemo(p Provider) *Memo {
	return &Memo{p: p, calls: make(map[string]*memoCall)}
}

func (m *Memo) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = NormalizeSymbol(symbol)

	m.mu.Lock()
	if call, ok := m.calls[symbol]; ok {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.quote, call.err
		case <-ctx.Done():
			return models.Quote{}, ctx.Err()
		}
	}
	call := &memoCall{done: make(chan struct{})}
	m.calls[symbol] = call
	m.mu.Unlock()

	call.quote, call.err = m.p.Quote(ctx, symbol)
	close(call.done)
	return call.quote, call.err
}
