package elasticsearch

import (
	"context"
	"time"
)

// ThreadDocument searchable projection of a thread
type ThreadDocument struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	AuthorID   string    `json:"author_id"`
	Template   string    `json:"template"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ThreadIndex thread search index on top of Client
type ThreadIndex struct {
	client *Client
	index  string
}

// NewThreadIndex binds a client to an index name
func NewThreadIndex(client *Client, index string) *ThreadIndex {
	return &ThreadIndex{client: client, index: index}
}

// EnsureIndex creates the index with the thread mapping
func (t *ThreadIndex) EnsureIndex(ctx context.Context) error {
	return t.client.EnsureIndex(ctx, t.index, threadMapping())
}

// Index upserts a thread document
func (t *ThreadIndex) Index(ctx context.Context, doc ThreadDocument) error {
	return t.client.Put(ctx, t.index, doc.ID, doc)
}

// Delete removes a thread document
func (t *ThreadIndex) Delete(ctx context.Context, id string) error {
	return t.client.Remove(ctx, t.index, id)
}

// IndexAll bulk-indexes documents
func (t *ThreadIndex) IndexAll(ctx context.Context, docs []ThreadDocument) error {
	batch := make([]Document, 0, len(docs))
	for _, d := range docs {
		batch = append(batch, Document{ID: d.ID, Body: d})
	}
	return t.client.PutMany(ctx, t.index, batch)
}

// Search returns matching thread ids in relevance order plus the total
func (t *ThreadIndex) Search(ctx context.Context, q string, from, size int) ([]string, int64, error) {
	res, err := t.client.Search(ctx, t.index, ThreadQuery(q), from, size)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, res.Total, nil
}

// ThreadQuery title-boosted match over title and body, archived threads excluded
func ThreadQuery(q string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     q,
						"fields":    []string{"title^3", "body"},
						"fuzziness": "AUTO",
					},
				},
				"must_not": map[string]interface{}{
					"term": map[string]interface{}{"status": "archived"},
				},
			},
		},
	}
}

func threadMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":          map[string]interface{}{"type": "keyword"},
				"category_id": map[string]interface{}{"type": "keyword"},
				"author_id":   map[string]interface{}{"type": "keyword"},
				"template":    map[string]interface{}{"type": "keyword"},
				"status":      map[string]interface{}{"type": "keyword"},
				"title":       map[string]interface{}{"type": "text", "analyzer": "portuguese"},
				"body":        map[string]interface{}{"type": "text", "analyzer": "portuguese"},
				"created_at":  map[string]interface{}{"type": "date"},
			},
		},
	}
}
