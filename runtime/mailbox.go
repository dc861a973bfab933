package runtime

import "chat-relay/domain"

// mailbox defers messages for offline identities. Queues preserve arrival
// order and are drained atomically on the online transition.
//
// Growth is capped per identity: past the limit the oldest pending message
// is dropped in favour of the newest. A reconnecting user cares more about
// recent traffic than about what happened right after they left.
type mailbox struct {
	limit   int
	pending map[string][]domain.Message
}

func newMailbox(limit int) *mailbox {
	return &mailbox{limit: limit, pending: make(map[string][]domain.Message)}
}

// enqueue appends to the identity's queue. It reports whether an older
// message was evicted to respect the cap.
func (m *mailbox) enqueue(identity string, msg domain.Message) (evicted bool) {
	queue := m.pending[identity]
	if m.limit > 0 && len(queue) >= m.limit {
		queue = queue[1:]
		evicted = true
	}
	m.pending[identity] = append(queue, msg)
	return evicted
}

// drain removes and returns every pending message for the identity in
// original enqueue order, leaving the queue empty.
func (m *mailbox) drain(identity string) []domain.Message {
	queue := m.pending[identity]
	delete(m.pending, identity)
	return queue
}

// requeue puts undelivered drained messages back at the front of the queue,
// used when the draining connection dies mid-drain.
func (m *mailbox) requeue(identity string, msgs []domain.Message) {
	if len(msgs) == 0 {
		return
	}
	m.pending[identity] = append(msgs, m.pending[identity]...)
}

func (m *mailbox) depth(identity string) int {
	return len(m.pending[identity])
}

// total counts pending messages across all identities.
func (m *mailbox) total() int {
	n := 0
	for _, queue := range m.pending {
		n += len(queue)
	}
	return n
}
