package service

import (
	"context"
	"strconv"

	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/pkg/elasticsearch"
)

const searchResultSize = 50

// entryDocument is the indexed shape of an entry's current state
type entryDocument struct {
	EntryID   uint64   `json:"entry_id"`
	JournalID uint64   `json:"journal_id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	EntryDate string   `json:"entry_date"`
	Tags      []string `json:"tags"`
	UpdatedAt string   `json:"updated_at"`
}

// EntryIndexMapping ES 인덱스 매핑
var EntryIndexMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"entry_id":   map[string]interface{}{"type": "long"},
			"journal_id": map[string]interface{}{"type": "long"},
			"title":      map[string]interface{}{"type": "text"},
			"body":       map[string]interface{}{"type": "text"},
			"entry_date": map[string]interface{}{"type": "date", "format": "yyyy-MM-dd"},
			"tags":       map[string]interface{}{"type": "keyword"},
			"updated_at": map[string]interface{}{"type": "date"},
		},
	},
}

// ESEntryIndexer Elasticsearch 기반 엔트리 색인기
type ESEntryIndexer struct {
	client *elasticsearch.Client
	index  string
}

// NewESEntryIndexer creates an indexer writing to index
func NewESEntryIndexer(client *elasticsearch.Client, index string) *ESEntryIndexer {
	return &ESEntryIndexer{client: client, index: index}
}

// EnsureIndex 인덱스가 없으면 생성
func (i *ESEntryIndexer) EnsureIndex(ctx context.Context) error {
	return i.client.CreateIndex(ctx, i.index, EntryIndexMapping)
}

// Index upserts the entry's current state
func (i *ESEntryIndexer) Index(ctx context.Context, entry *domain.Entry) error {
	tags := make([]string, 0, len(entry.Tags))
	for _, t := range entry.Tags {
		tags = append(tags, t.Name)
	}
	doc := entryDocument{
		EntryID:   entry.ID,
		JournalID: entry.JournalID,
		Title:     entry.Title,
		Body:      entry.Body,
		EntryDate: entry.EntryDate.Format(domain.DateLayout),
		Tags:      tags,
		UpdatedAt: entry.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	return i.client.IndexDocument(ctx, i.index, strconv.FormatUint(entry.ID, 10), doc)
}

// Remove deletes the entry document; missing documents are fine
func (i *ESEntryIndexer) Remove(ctx context.Context, entryID uint64) error {
	return i.client.DeleteDocument(ctx, i.index, strconv.FormatUint(entryID, 10))
}

// Search returns entry ids in one journal matching query, best first
func (i *ESEntryIndexer) Search(ctx context.Context, journalID uint64, query string) ([]uint64, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"title^2", "body", "tags"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"journal_id": journalID},
				},
			},
		},
	}

	raw, err := i.client.SearchIDs(ctx, i.index, body, searchResultSize)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
