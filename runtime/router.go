// Package runtime owns the routing core: the presence table, the offline
// mailbox and the delivery fan-out. Nothing outside this package mutates that
// state; every operation is serialized through a single actor loop, which
// removes interleaving hazards between a mailbox drain and a concurrent
// enqueue for the same identity without per-entry locks.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/directory"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// Router is the connection and message routing manager. Public methods post
// commands into the actor loop and block until the loop has applied them, so
// callers observe a consistent state. Run must be executing for any of them
// to complete.
type Router struct {
	log         *slog.Logger
	directory   *directory.Directory
	presence    *presenceTable
	mail        *mailbox
	transcripts contract.TranscriptStore
	index       contract.TranscriptIndex
	moderator   contract.Moderator
	metrics     *observability.Metrics
	commands    chan command
}

// Options carries the optional collaborators of the router. Any nil field
// simply disables the corresponding concern.
type Options struct {
	Transcripts contract.TranscriptStore
	Index       contract.TranscriptIndex
	Moderator   contract.Moderator
	Metrics     *observability.Metrics

	// CommandBufferSize sizes the actor queue, MailboxLimit caps each
	// identity's offline queue (0 means unbounded).
	CommandBufferSize int
	MailboxLimit      int
}

func NewRouter(log *slog.Logger, dir *directory.Directory, opts Options) *Router {
	return &Router{
		log:         log,
		directory:   dir,
		presence:    newPresenceTable(dir.Identities()),
		mail:        newMailbox(opts.MailboxLimit),
		transcripts: opts.Transcripts,
		index:       opts.Index,
		moderator:   opts.Moderator,
		metrics:     opts.Metrics,
		commands:    make(chan command, opts.CommandBufferSize),
	}
}

type command interface {
	apply(r *Router)

	// fail replies with err in place of the outcome apply never produced.
	fail(err error)
}

type connectCmd struct {
	identity string
	sink     contract.Sink
	reply    chan error
}

type disconnectCmd struct {
	identity string
	reply    chan error
}

type releaseCmd struct {
	identity string
	sink     contract.Sink
	reply    chan error
}

type directCmd struct {
	sender, recipient, text string
	reply                   chan error
}

type groupCmd struct {
	sender, group, text string
	reply               chan error
}

type snapshotCmd struct {
	reply chan snapshotReply
}

type snapshotReply struct {
	snapshot domain.Snapshot
	err      error
}

// Run processes commands until the context is canceled. It is meant to be
// started as a supervised worker. A panic inside a command handler is
// recovered here and turned into an error reply, so the caller that posted
// the command never blocks waiting for an answer that will not come.
func (r *Router) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Stopping router loop")
			return ctx.Err()
		case cmd := <-r.commands:
			r.dispatch(cmd)
		}
	}
}

func (r *Router) dispatch(cmd command) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Command handler panicked", "panic", rec)
			cmd.fail(fmt.Errorf("routing command panicked: %v", rec))
		}
	}()
	cmd.apply(r)
}

// OnConnect registers a freshly authenticated connection. Unknown identities
// fail with ErrUnauthorizedIdentity and zero side effects; the caller must
// close the transport. On success the identity's mailbox is drained to the
// new sink in original order before any later traffic, then a status
// broadcast goes out.
func (r *Router) OnConnect(ctx context.Context, identity string, sink contract.Sink) error {
	cmd := connectCmd{identity: identity, sink: sink, reply: make(chan error, 1)}
	return r.post(ctx, cmd, cmd.reply)
}

// OnDisconnect transitions the identity to offline. Idempotent: calling it
// for an identity that never connected or already disconnected is a no-op.
func (r *Router) OnDisconnect(ctx context.Context, identity string) error {
	cmd := disconnectCmd{identity: identity, reply: make(chan error, 1)}
	return r.post(ctx, cmd, cmd.reply)
}

// Release transitions the identity offline only if its presence still holds
// sink. Transports call this on connection teardown so that the teardown of
// a connection already replaced by a reconnect leaves the replacement alone.
func (r *Router) Release(ctx context.Context, identity string, sink contract.Sink) error {
	cmd := releaseCmd{identity: identity, sink: sink, reply: make(chan error, 1)}
	return r.post(ctx, cmd, cmd.reply)
}

// RouteDirect delivers to an online recipient or defers to its mailbox.
// Exactly one of the two happens for every accepted message.
func (r *Router) RouteDirect(ctx context.Context, sender, recipient, text string) error {
	cmd := directCmd{sender: sender, recipient: recipient, text: text, reply: make(chan error, 1)}
	return r.post(ctx, cmd, cmd.reply)
}

// RouteGroup appends to the group transcript and fans out to every member
// currently online. Offline members rely on the transcript, there is no
// group-level mailbox.
func (r *Router) RouteGroup(ctx context.Context, sender, group, text string) error {
	cmd := groupCmd{sender: sender, group: group, text: text, reply: make(chan error, 1)}
	return r.post(ctx, cmd, cmd.reply)
}

// Snapshot returns the full presence mapping. Read through the actor so no
// torn state is ever observed.
func (r *Router) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	cmd := snapshotCmd{reply: make(chan snapshotReply, 1)}
	select {
	case r.commands <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-cmd.reply:
		return res.snapshot, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// post submits a command and waits for its reply. Reply channels are buffered
// so the actor never blocks on a caller that gave up.
func (r *Router) post(ctx context.Context, cmd command, reply chan error) error {
	select {
	case r.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c connectCmd) apply(r *Router) { c.reply <- r.handleConnect(c.identity, c.sink) }

func (c disconnectCmd) apply(r *Router) { c.reply <- r.handleDisconnect(c.identity) }

func (c releaseCmd) apply(r *Router) {
	if current, ok := r.presence.sink(c.identity); ok && current == c.sink {
		c.reply <- r.handleDisconnect(c.identity)
		return
	}
	c.reply <- nil
}

func (c directCmd) apply(r *Router) { c.reply <- r.handleDirect(c.sender, c.recipient, c.text) }

func (c groupCmd) apply(r *Router) { c.reply <- r.handleGroup(c.sender, c.group, c.text) }

func (c snapshotCmd) apply(r *Router) { c.reply <- snapshotReply{snapshot: r.presence.snapshot()} }

func (c connectCmd) fail(err error) { c.reply <- err }

func (c disconnectCmd) fail(err error) { c.reply <- err }

func (c releaseCmd) fail(err error) { c.reply <- err }

func (c directCmd) fail(err error) { c.reply <- err }

func (c groupCmd) fail(err error) { c.reply <- err }

func (c snapshotCmd) fail(err error) { c.reply <- snapshotReply{err: err} }

func (r *Router) handleConnect(identity string, sink contract.Sink) error {
	if !r.directory.Knows(identity) {
		r.log.Warn("Unauthorized connection attempt", "identity", identity)
		return errors.ErrUnauthorizedIdentity
	}

	if previous := r.presence.register(identity, sink); previous != nil {
		// Reconnect while still online: the new connection replaces the old.
		r.log.Info("Replacing live connection", "identity", identity)
		previous.Close()
	}

	pending := r.mail.drain(identity)
	for i, msg := range pending {
		if err := sink.Deliver(domain.NewMessageFrame(msg.Sender, msg.Text)); err != nil {
			// The fresh connection died mid-drain. Keep the undelivered
			// tail for the next connect and fall back to offline.
			r.mail.requeue(identity, pending[i:])
			r.dropConnection(identity)
			r.broadcastStatus()
			r.observeGauges()
			return nil
		}
	}

	r.log.Info("Identity connected", "identity", identity, "drained", len(pending))
	r.broadcastStatus()
	r.observeGauges()
	return nil
}

func (r *Router) handleDisconnect(identity string) error {
	changed, released := r.presence.unregister(identity)
	if !changed {
		return nil
	}
	if released != nil {
		released.Close()
	}
	r.log.Info("Identity disconnected", "identity", identity)
	r.broadcastStatus()
	r.observeGauges()
	return nil
}

func (r *Router) handleDirect(sender, recipient, text string) error {
	if !r.directory.Knows(recipient) {
		return errors.ErrUnknownRecipient
	}

	msg := domain.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Recipient: recipient,
		Text:      r.censor(text, sender),
		CreatedAt: time.Now().UTC(),
	}

	sink, online := r.presence.sink(recipient)
	if !online {
		r.deferToMailbox(recipient, msg)
		r.metrics.IncRouted("direct", "deferred")
		r.observeGauges()
		return nil
	}

	if err := sink.Deliver(domain.NewMessageFrame(msg.Sender, msg.Text)); err != nil {
		// Implicit disconnect: the believed-online recipient is gone. The
		// message is deferred instead, so exactly one outcome still holds.
		r.dropConnection(recipient)
		r.deferToMailbox(recipient, msg)
		r.metrics.IncRouted("direct", "deferred")
		r.broadcastStatus()
		r.observeGauges()
		return nil
	}

	r.metrics.IncRouted("direct", "delivered")
	return nil
}

func (r *Router) handleGroup(sender, group, text string) error {
	grp, ok := r.directory.Group(group)
	if !ok {
		return errors.ErrUnknownGroup
	}
	if !grp.Has(sender) {
		return errors.ErrNotAGroupMember
	}

	sanitized := r.censor(text, sender)
	record := domain.TranscriptRecord{
		ID:     uuid.New(),
		Group:  group,
		Sender: sender,
		Text:   sanitized,
		Lang:   whatlanggo.Detect(sanitized).Lang.Iso6391(),
		At:     time.Now().UTC(),
	}
	if r.transcripts != nil {
		if err := r.transcripts.Append(record); err != nil {
			// The live fan-out still happens; losing one history entry is
			// not worth failing the whole group message.
			r.log.Error("Transcript append failed", "group", group, "error", err)
		}
	}
	if r.index != nil {
		if err := r.index.Index(record); err != nil {
			r.log.Error("Transcript indexing failed", "group", group, "error", err)
		}
	}

	frame := domain.NewMessageFrame(sender, sanitized)
	var failed []string
	delivered := 0
	for member := range grp.Members {
		sink, online := r.presence.sink(member)
		if !online {
			continue
		}
		if err := sink.Deliver(frame); err != nil {
			failed = append(failed, member)
			continue
		}
		delivered++
	}
	for _, member := range failed {
		r.dropConnection(member)
	}
	if len(failed) > 0 {
		r.broadcastStatus()
	}
	outcome := "delivered"
	if delivered == 0 {
		// No member was reachable: until someone reads the history, the
		// transcript holds the only copy.
		outcome = "deferred"
	}
	r.metrics.IncRouted("group", outcome)
	r.observeGauges()
	return nil
}

// broadcastStatus sends the post-transition snapshot to every online sink.
// A failed send marks that identity implicitly disconnected, which changes
// the snapshot, so the broadcast restarts until a pass succeeds for everyone
// still online. Each pass shrinks the online set, so this terminates.
func (r *Router) broadcastStatus() {
	for {
		frame := domain.NewStatusFrame(r.presence.snapshot())
		var failed []string
		for identity, sink := range r.presence.online() {
			if err := sink.Deliver(frame); err != nil {
				failed = append(failed, identity)
			}
		}
		if len(failed) == 0 {
			return
		}
		for _, identity := range failed {
			r.dropConnection(identity)
		}
	}
}

// dropConnection is the implicit-disconnect path shared by every delivery
// failure. It only flips presence; the caller decides when to rebroadcast.
func (r *Router) dropConnection(identity string) {
	changed, released := r.presence.unregister(identity)
	if !changed {
		return
	}
	if released != nil {
		released.Close()
	}
	r.metrics.IncDeliveryFailure()
	r.log.Warn("Delivery failed, treating identity as disconnected", "identity", identity)
}

func (r *Router) deferToMailbox(recipient string, msg domain.Message) {
	if evicted := r.mail.enqueue(recipient, msg); evicted {
		r.log.Warn("Mailbox cap reached, evicting oldest message", "identity", recipient)
	}
}

func (r *Router) censor(text, sender string) string {
	if r.moderator == nil {
		return text
	}
	sanitized, matched := r.moderator.Censor(text)
	if len(matched) > 0 {
		r.log.Debug("Censored message content", "sender", sender, "matched", len(matched))
	}
	return sanitized
}

func (r *Router) observeGauges() {
	r.metrics.SetOnline(r.presence.onlineCount())
	r.metrics.SetMailboxPending(r.mail.total())
}
