//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"
)

// Sink is the write half of one live client connection. It is exclusively
// owned by the presence entry of its identity while online.
type Sink interface {
	// Deliver queues a frame for the connection's write pump. It must not
	// block: a full buffer or a closed sink fails immediately so the router
	// can treat the identity as implicitly disconnected.
	Deliver(frame domain.OutboundFrame) error

	// Close releases the sink. Further Deliver calls fail. Idempotent.
	Close()
}

// Router is the surface the transports call into. All mutations of presence,
// mailbox and transcripts are serialized behind it.
type Router interface {
	OnConnect(ctx context.Context, identity string, sink Sink) error
	OnDisconnect(ctx context.Context, identity string) error

	// Release is the transport-side disconnect: it only transitions the
	// identity offline while its presence is still bound to sink. A stale
	// connection replaced by a reconnect releases nothing.
	Release(ctx context.Context, identity string, sink Sink) error
	RouteDirect(ctx context.Context, sender, recipient, text string) error
	RouteGroup(ctx context.Context, sender, group, text string) error
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// TranscriptStore persists the append-only history of group messages.
type TranscriptStore interface {
	Append(record domain.TranscriptRecord) error
	History(group string) ([]domain.TranscriptRecord, error)
}

// TranscriptIndex receives every transcript record for full-text search.
// Indexing is best effort, it never blocks routing.
type TranscriptIndex interface {
	Index(record domain.TranscriptRecord) error
}

// Moderator rewrites a message body before delivery and reports which
// censored words were matched.
type Moderator interface {
	Censor(original string) (sanitized string, matched []string)
}

// Worker doesn't protect itself: the supervisor recovers its panics
// and restarts it.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// used for logging and supervision without a naming method on Worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
