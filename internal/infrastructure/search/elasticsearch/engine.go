// internal/infrastructure/search/elasticsearch/engine.go
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/domain/search"
	"github.com/sirupsen/logrus"
)

const facetSize = 20

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":          map[string]any{"type": "long"},
			"name":        map[string]any{"type": "text", "fields": map[string]any{"keyword": map[string]any{"type": "keyword", "ignore_above": 256}}},
			"description": map[string]any{"type": "text"},
			"brand":       map[string]any{"type": "keyword"},
			"sku":         map[string]any{"type": "keyword"},
			"categories":  map[string]any{"type": "keyword"},
			"price":       map[string]any{"type": "scaled_float", "scaling_factor": 100},
			"active":      map[string]any{"type": "boolean"},
			"created_at":  map[string]any{"type": "date"},
		},
	},
}

// Engine implements search.Engine on an Elasticsearch index
type Engine struct {
	client *es.Client
	index  string
	logger logrus.FieldLogger
}

// NewEngine connects to the cluster described by cfg
func NewEngine(cfg config.SearchConfig, logger logrus.FieldLogger) (*Engine, error) {
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Engine{client: client, index: cfg.Index, logger: logger}, nil
}

// EnsureIndex creates the products index with its mapping when missing
func (e *Engine) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", e.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := json.Marshal(indexMapping)
	if err != nil {
		return err
	}
	res, err = e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", e.index, err)
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return fmt.Errorf("failed to create index %s: %w", e.index, err)
	}

	e.logger.WithField("index", e.index).Info("search index created")
	return nil
}

// Health pings the cluster
func (e *Engine) Health(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return responseError(res)
}

func (e *Engine) Index(ctx context.Context, docs ...search.Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		meta := map[string]any{"index": map[string]any{"_id": strconv.FormatUint(uint64(doc.ID), 10)}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}

	res, err := e.client.Bulk(&buf,
		e.client.Bulk.WithContext(ctx),
		e.client.Bulk.WithIndex(e.index),
		e.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("failed to index products: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return fmt.Errorf("failed to index products: %w", err)
	}

	var bulk bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if bulk.Errors {
		for _, item := range bulk.Items {
			if item.Index.Error != nil {
				return fmt.Errorf("failed to index product %s: %s", item.Index.ID, item.Index.Error.Reason)
			}
		}
		return errors.New("bulk indexing reported errors")
	}
	return nil
}

func (e *Engine) Delete(ctx context.Context, id uint) error {
	res, err := e.client.Delete(e.index, strconv.FormatUint(uint64(id), 10),
		e.client.Delete.WithContext(ctx),
		e.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("failed to delete product %d from index: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError(res)
}

func (e *Engine) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	q = q.Normalize()

	var parsed searchResponse
	if err := e.search(ctx, searchBody(q), &parsed); err != nil {
		return nil, err
	}

	items := make([]search.Document, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		items = append(items, hit.Source)
	}
	facets := search.Facets{
		Categories: parsed.Aggregations.Categories.facets(),
		Brands:     parsed.Aggregations.Brands.facets(),
	}
	return search.NewResult(q, items, parsed.Hits.Total.Value, facets), nil
}

func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	var parsed searchResponse
	if err := e.search(ctx, suggestBody(prefix, limit), &parsed); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		names = append(names, hit.Source.Name)
	}
	return names, nil
}

func (e *Engine) search(ctx context.Context, body map[string]any, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(payload)),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return fmt.Errorf("search request failed: %w", err)
	}

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode search response: %w", err)
	}
	return nil
}

// searchBody builds the bool query for q: free text on name^2 and description,
// exact filters for category and brand, a price range, and facet aggregations.
func searchBody(q search.Query) map[string]any {
	filters := []any{
		map[string]any{"term": map[string]any{"active": true}},
	}
	if q.Category != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"categories": q.Category}})
	}
	if q.Brand != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"brand": q.Brand}})
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		price := map[string]any{}
		if q.MinPrice != nil {
			price["gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["lte"] = *q.MaxPrice
		}
		filters = append(filters, map[string]any{"range": map[string]any{"price": price}})
	}

	boolQuery := map[string]any{"filter": filters}
	if q.Text != "" {
		boolQuery["must"] = []any{
			map[string]any{"multi_match": map[string]any{
				"query":  q.Text,
				"fields": []string{"name^2", "description"},
				"type":   "best_fields",
			}},
		}
	}

	return map[string]any{
		"from":  q.Offset(),
		"size":  q.Size,
		"query": map[string]any{"bool": boolQuery},
		"sort": []any{
			"_score",
			map[string]any{"created_at": map[string]any{"order": "desc"}},
		},
		"aggs": map[string]any{
			"categories": map[string]any{"terms": map[string]any{"field": "categories", "size": facetSize}},
			"brands":     map[string]any{"terms": map[string]any{"field": "brand", "size": facetSize}},
		},
	}
}

func suggestBody(prefix string, limit int) map[string]any {
	return map[string]any{
		"size":    limit * 2,
		"_source": []string{"name"},
		"query": map[string]any{"bool": map[string]any{
			"must":   map[string]any{"match_phrase_prefix": map[string]any{"name": prefix}},
			"filter": map[string]any{"term": map[string]any{"active": true}},
		}},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source search.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Categories termsAgg `json:"categories"`
		Brands     termsAgg `json:"brands"`
	} `json:"aggregations"`
}

type termsAgg struct {
	Buckets []struct {
		Key      string `json:"key"`
		DocCount int64  `json:"doc_count"`
	} `json:"buckets"`
}

func (a termsAgg) facets() []search.Facet {
	facets := make([]search.Facet, 0, len(a.Buckets))
	for _, b := range a.Buckets {
		facets = append(facets, search.Facet{Value: b.Key, Count: b.DocCount})
	}
	return facets
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

func responseError(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("elasticsearch returned %s: %s", res.Status(), strings.TrimSpace(string(body)))
}
