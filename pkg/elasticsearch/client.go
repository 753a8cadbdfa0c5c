package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
)

// Config cluster connection settings
type Config struct {
	Addresses []string
	Username  string
	Password  string
	// Transport overrides the HTTP transport, mainly for tests
	Transport http.RoundTripper
}

// Client thin wrapper over the official client that turns error responses
// into Go errors
type Client struct {
	es *elasticsearch.Client
}

// Document one entry of a bulk request
type Document struct {
	ID   string
	Body interface{}
}

// Hit single search hit
type Hit struct {
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// SearchResult total match count plus the requested page of hits
type SearchResult struct {
	Total int64
	Hits  []Hit
}

// ResponseError non-2xx answer from the cluster
type ResponseError struct {
	Op     string
	Status int
	Type   string
	Reason string
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("elasticsearch %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("elasticsearch %s: status %d: %s: %s", e.Op, e.Status, e.Type, e.Reason)
}

// NewClient builds a client and checks the cluster answers
func NewClient(cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	c := &Client{es: es}
	if err := c.Ping(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// Ping requests cluster info
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	return checkResponse("info", res)
}

// EnsureIndex creates index with body (settings and mappings). An index
// that already exists is left untouched.
func (c *Client) EnsureIndex(ctx context.Context, index string, body interface{}) error {
	res, err := c.es.Indices.Create(index,
		c.es.Indices.Create.WithBody(esutil.NewJSONReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch create index: %w", err)
	}
	defer res.Body.Close()

	err = checkResponse("create index", res)
	var rerr *ResponseError
	if errors.As(err, &rerr) && rerr.Type == "resource_already_exists_exception" {
		return nil
	}
	return err
}

// Put indexes or replaces one document
func (c *Client) Put(ctx context.Context, index, id string, doc interface{}) error {
	res, err := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       esutil.NewJSONReader(doc),
	}.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer res.Body.Close()
	return checkResponse("index", res)
}

// Remove deletes one document; a document that does not exist is fine
func (c *Client) Remove(ctx context.Context, index, id string) error {
	res, err := esapi.DeleteRequest{Index: index, DocumentID: id}.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return checkResponse("delete", res)
}

// PutMany indexes docs with a single bulk request. Per-item failures are
// reported as one error naming the first failed id.
func (c *Client) PutMany(ctx context.Context, index string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	body, err := bulkBody(index, docs)
	if err != nil {
		return err
	}

	res, err := c.es.Bulk(bytes.NewReader(body), c.es.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch bulk: %w", err)
	}
	defer res.Body.Close()
	if err := checkResponse("bulk", res); err != nil {
		return err
	}
	return bulkItemError(res.Body)
}

// Search runs query against index and returns one page of hits
func (c *Client) Search(ctx context.Context, index string, query interface{}, from, size int) (*SearchResult, error) {
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(esutil.NewJSONReader(query)),
		c.es.Search.WithFrom(from),
		c.es.Search.WithSize(size),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()
	if err := checkResponse("search", res); err != nil {
		return nil, err
	}
	return decodeSearchResult(res.Body)
}

func bulkBody(index string, docs []Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		action := map[string]map[string]string{"index": {"_index": index, "_id": d.ID}}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("bulk action %s: %w", d.ID, err)
		}
		if err := enc.Encode(d.Body); err != nil {
			return nil, fmt.Errorf("bulk document %s: %w", d.ID, err)
		}
	}
	return buf.Bytes(), nil
}

func bulkItemError(r io.Reader) error {
	var out struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if !out.Errors {
		return nil
	}
	failed := 0
	var first error
	for _, item := range out.Items {
		for _, result := range item {
			if result.Status < 300 {
				continue
			}
			failed++
			if first == nil {
				first = fmt.Errorf("document %s: %s: %s", result.ID, result.Error.Type, result.Error.Reason)
			}
		}
	}
	if first == nil {
		return nil
	}
	return fmt.Errorf("elasticsearch bulk: %d items failed, first %w", failed, first)
}

func decodeSearchResult(r io.Reader) (*SearchResult, error) {
	var raw struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []Hit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &SearchResult{Total: raw.Hits.Total.Value, Hits: raw.Hits.Hits}, nil
}

func checkResponse(op string, res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	rerr := &ResponseError{Op: op, Status: res.StatusCode}
	var body struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if raw, err := io.ReadAll(res.Body); err == nil && json.Unmarshal(raw, &body) == nil {
		rerr.Type, rerr.Reason = body.Error.Type, body.Error.Reason
	}
	return rerr
}
