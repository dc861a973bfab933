// Package search maintains a full-text index over group transcripts so
// history can be queried by content, not just replayed.
package search

import (
	"chat-relay/domain"
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

// Index wraps an in-memory Bluge writer. Records are indexed as they are
// appended to a transcript; like the transcripts themselves the index lives
// for the process only.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewInMemoryIndex(log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer, log: log}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// Index stores one transcript record. All fields are stored so search hits
// can be returned without a second lookup in the transcript store.
func (i *Index) Index(record domain.TranscriptRecord) error {
	doc := bluge.NewDocument(record.ID.String()).
		AddField(bluge.NewTextField("text", record.Text).StoreValue()).
		AddField(bluge.NewKeywordField("group", record.Group).StoreValue()).
		AddField(bluge.NewKeywordField("sender", record.Sender).StoreValue()).
		AddField(bluge.NewKeywordField("lang", record.Lang).StoreValue()).
		AddField(bluge.NewDateTimeField("at", record.At).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

// Search returns the best-matching records of one group, relevance first.
func (i *Index) Search(ctx context.Context, group, query string, limit int) ([]domain.TranscriptRecord, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Error("Closing index reader failed", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("text")).
		AddMust(bluge.NewTermQuery(group).SetField("group"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var records []domain.TranscriptRecord
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			return records, nil
		}

		var record domain.TranscriptRecord
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				record.ID, _ = uuid.Parse(string(value))
			case "text":
				record.Text = string(value)
			case "group":
				record.Group = string(value)
			case "sender":
				record.Sender = string(value)
			case "lang":
				record.Lang = string(value)
			case "at":
				if at, err := bluge.DecodeDateTime(value); err == nil {
					record.At = at.UTC()
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

