package services

import (
	"chat-relay/contract"
	"chat-relay/directory"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/search"
	"context"
)

type IChatService interface {
	Connect(ctx context.Context, identity string, sink contract.Sink) error
	Disconnect(ctx context.Context, identity string) error
	Release(ctx context.Context, identity string, sink contract.Sink) error
	SendDirect(ctx context.Context, sender, recipient, text string) error
	SendGroup(ctx context.Context, sender, group, text string) error
	PresenceSnapshot(ctx context.Context) (domain.Snapshot, error)
	GroupHistory(group string) ([]domain.TranscriptRecord, error)
	SearchGroup(ctx context.Context, group, query string, limit int) ([]domain.TranscriptRecord, error)
}

// ChatService is the facade the transports talk to. Routing goes through the
// router actor; history and search are read-only and query the append-only
// stores directly.
type ChatService struct {
	router      contract.Router
	directory   *directory.Directory
	transcripts contract.TranscriptStore
	index       *search.Index
}

func NewChatService(router contract.Router, dir *directory.Directory,
	transcripts contract.TranscriptStore, index *search.Index) *ChatService {
	return &ChatService{router: router, directory: dir, transcripts: transcripts, index: index}
}

func (s *ChatService) Connect(ctx context.Context, identity string, sink contract.Sink) error {
	return s.router.OnConnect(ctx, identity, sink)
}

func (s *ChatService) Disconnect(ctx context.Context, identity string) error {
	return s.router.OnDisconnect(ctx, identity)
}

func (s *ChatService) Release(ctx context.Context, identity string, sink contract.Sink) error {
	return s.router.Release(ctx, identity, sink)
}

func (s *ChatService) SendDirect(ctx context.Context, sender, recipient, text string) error {
	return s.router.RouteDirect(ctx, sender, recipient, text)
}

func (s *ChatService) SendGroup(ctx context.Context, sender, group, text string) error {
	return s.router.RouteGroup(ctx, sender, group, text)
}

func (s *ChatService) PresenceSnapshot(ctx context.Context) (domain.Snapshot, error) {
	return s.router.Snapshot(ctx)
}

func (s *ChatService) GroupHistory(group string) ([]domain.TranscriptRecord, error) {
	if _, ok := s.directory.Group(group); !ok {
		return nil, errors.ErrUnknownGroup
	}
	return s.transcripts.History(group)
}

func (s *ChatService) SearchGroup(ctx context.Context, group, query string, limit int) ([]domain.TranscriptRecord, error) {
	if _, ok := s.directory.Group(group); !ok {
		return nil, errors.ErrUnknownGroup
	}
	return s.index.Search(ctx, group, query, limit)
}
