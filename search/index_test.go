package search

import (
	"chat-relay/domain"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	index, err := NewInMemoryIndex(slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func indexedRecord(group, sender, text string) domain.TranscriptRecord {
	return domain.TranscriptRecord{
		ID:     uuid.New(),
		Group:  group,
		Sender: sender,
		Text:   text,
		Lang:   "en",
		At:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestIndex_Search_Finds_Matching_Text(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	// Given three indexed records
	wanted := indexedRecord("team", "alice", "deploy scheduled for friday")
	req.NoError(index.Index(wanted))
	req.NoError(index.Index(indexedRecord("team", "bob", "lunch anyone")))
	req.NoError(index.Index(indexedRecord("team", "carol", "friday works for me")))

	// When searching for "deploy"
	hits, err := index.Search(context.Background(), "team", "deploy", 10)

	// Then only the matching record comes back, fully hydrated
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(wanted.ID, hits[0].ID)
	req.Equal("alice", hits[0].Sender)
	req.Equal("deploy scheduled for friday", hits[0].Text)
	req.Equal("team", hits[0].Group)
	req.Equal("en", hits[0].Lang)
	req.False(hits[0].At.IsZero())
}

func TestIndex_Search_Is_Scoped_To_The_Group(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	req.NoError(index.Index(indexedRecord("team", "alice", "release notes drafted")))
	req.NoError(index.Index(indexedRecord("ops", "bob", "release rolled back")))

	hits, err := index.Search(context.Background(), "team", "release", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("team", hits[0].Group)
}

func TestIndex_Search_Honors_The_Limit(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	for i := 0; i < 5; i++ {
		req.NoError(index.Index(indexedRecord("team", "alice", "status update")))
	}

	hits, err := index.Search(context.Background(), "team", "status", 2)
	req.NoError(err)
	req.Len(hits, 2)
}

func TestIndex_Search_Without_Matches_Is_Empty(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	req.NoError(index.Index(indexedRecord("team", "alice", "nothing relevant")))

	hits, err := index.Search(context.Background(), "team", "kubernetes", 10)
	req.NoError(err)
	req.Empty(hits)
}
