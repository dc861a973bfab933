//go:generate go run go.uber.org/mock/mockgen -source=transcript.go -destination=../mocks/mock_transcript_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// TranscriptRepository stores group transcripts in BadgerDB. The relay opens
// the database in-memory: transcripts are a process-lifetime record, not
// durable storage.
type TranscriptRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewTranscriptRepository(db *badger.DB, log *slog.Logger) TranscriptRepository {
	return TranscriptRepository{db: db, log: log}
}

// transcriptKey formats "transcript:{group}:{timestamp_padded}:{uuid}".
// The 19-digit zero padding makes lexicographic key order chronological;
// the UUID disambiguates two records in the same nanosecond.
func transcriptKey(record domain.TranscriptRecord) []byte {
	return []byte(fmt.Sprintf("transcript:%s:%019d:%s",
		record.Group, record.At.UnixNano(), record.ID))
}

// Append persists one transcript record. Records are never updated or
// deleted, keeping the history append-only.
func (r TranscriptRepository) Append(record domain.TranscriptRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(transcriptKey(record), value)
	})
}

// History returns every record of the group in chronological order. Thanks
// to the padded timestamp in the key this is a plain forward prefix scan.
func (r TranscriptRepository) History(group string) ([]domain.TranscriptRecord, error) {
	prefix := []byte(fmt.Sprintf("transcript:%s:", group))
	var records []domain.TranscriptRecord

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var record domain.TranscriptRecord
				if err := json.Unmarshal(value, &record); err != nil {
					// One corrupt entry should not hide the whole history.
					r.log.Error("Skipping undecodable transcript entry",
						"key", string(it.Item().Key()), "error", err)
					return nil
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
