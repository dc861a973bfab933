package repositories

import (
	"chat-relay/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func record(group, sender, text string, at time.Time) domain.TranscriptRecord {
	return domain.TranscriptRecord{
		ID:     uuid.New(),
		Group:  group,
		Sender: sender,
		Text:   text,
		Lang:   "en",
		At:     at,
	}
}

func TestTranscriptRepository_History_Is_Chronological(t *testing.T) {
	req := require.New(t)
	repository := NewTranscriptRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC()

	// Given records appended out of chronological order
	req.NoError(repository.Append(record("team", "bob", "second", at.Add(time.Minute))))
	req.NoError(repository.Append(record("team", "alice", "first", at)))
	req.NoError(repository.Append(record("team", "carol", "third", at.Add(2*time.Minute))))

	// When
	history, err := repository.History("team")

	// Then the padded timestamp key yields chronological order
	req.NoError(err)
	req.Len(history, 3)
	req.Equal("first", history[0].Text)
	req.Equal("second", history[1].Text)
	req.Equal("third", history[2].Text)
}

func TestTranscriptRepository_History_Is_Scoped_To_The_Group(t *testing.T) {
	req := require.New(t)
	repository := NewTranscriptRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC()

	req.NoError(repository.Append(record("team", "alice", "for team", at)))
	req.NoError(repository.Append(record("ops", "bob", "for ops", at)))

	history, err := repository.History("team")
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("for team", history[0].Text)

	empty, err := repository.History("nowhere")
	req.NoError(err)
	req.Empty(empty)
}

func TestTranscriptRepository_Records_Survive_Same_Timestamp(t *testing.T) {
	req := require.New(t)
	repository := NewTranscriptRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC()

	// Given two records in the exact same nanosecond
	req.NoError(repository.Append(record("team", "alice", "one", at)))
	req.NoError(repository.Append(record("team", "alice", "two", at)))

	// Then the UUID suffix keeps both
	history, err := repository.History("team")
	req.NoError(err)
	req.Len(history, 2)
}
