package playback

import "sync"

// mailbox is an unbounded FIFO of operations. post never blocks, so audio
// and timer goroutines can hand events to the guild goroutine freely.
type mailbox struct {
	mu     sync.Mutex
	ops    []func()
	closed bool
	wake   chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

// post reports false once the mailbox has been closed.
func (m *mailbox) post(op func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.ops = append(m.ops, op)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

func (m *mailbox) next() (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ops) == 0 {
		return nil, false
	}
	op := m.ops[0]
	m.ops[0] = nil
	m.ops = m.ops[1:]
	return op, true
}

// closeIfEmpty closes the mailbox only when nothing is pending.
func (m *mailbox) closeIfEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ops) > 0 {
		return false
	}
	m.closed = true
	return true
}

func (m *mailbox) forceClose() {
	m.mu.Lock()
	m.closed = true
	m.ops = nil
	m.mu.Unlock()
}
