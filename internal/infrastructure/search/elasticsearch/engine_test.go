package elasticsearch

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/domain/search"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

type fakeCluster struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(r *http.Request) (int, string)
}

func (c *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.requests = append(c.requests, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body)})
	c.mu.Unlock()

	status, payload := c.respond(r)
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, payload)
}

func newTestEngine(t *testing.T, respond func(r *http.Request) (int, string)) (*Engine, *fakeCluster) {
	t.Helper()
	cluster := &fakeCluster{respond: respond}
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	engine, err := NewEngine(config.SearchConfig{Addresses: []string{srv.URL}, Index: "products"}, logger)
	require.NoError(t, err)
	return engine, cluster
}

func TestSearchBody(t *testing.T) {
	minPrice, maxPrice := 500000.0, 2000000.0
	body := searchBody(search.Query{
		Text:     "노트북",
		Category: "electronics",
		Brand:    "Samsung",
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
		Page:     1,
		Size:     10,
	}.Normalize())

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"from": 10,
		"size": 10,
		"query": {"bool": {
			"must": [{"multi_match": {"query": "노트북", "fields": ["name^2", "description"], "type": "best_fields"}}],
			"filter": [
				{"term": {"active": true}},
				{"term": {"categories": "electronics"}},
				{"term": {"brand": "Samsung"}},
				{"range": {"price": {"gte": 500000, "lte": 2000000}}}
			]
		}},
		"sort": ["_score", {"created_at": {"order": "desc"}}],
		"aggs": {
			"categories": {"terms": {"field": "categories", "size": 20}},
			"brands": {"terms": {"field": "brand", "size": 20}}
		}
	}`, string(raw))
}

func TestSearchBodyWithoutTextHasNoMust(t *testing.T) {
	body := searchBody(search.Query{Brand: "LG"}.Normalize())
	boolQuery := body["query"].(map[string]any)["bool"].(map[string]any)
	assert.NotContains(t, boolQuery, "must")
	assert.Len(t, boolQuery["filter"], 2)
}

func TestSearchParsesHitsAndFacets(t *testing.T) {
	engine, cluster := newTestEngine(t, func(r *http.Request) (int, string) {
		return http.StatusOK, `{
			"hits": {"total": {"value": 21}, "hits": [
				{"_source": {"id": 1, "name": "Galaxy Book", "brand": "Samsung", "categories": ["electronics"], "price": 1500000, "active": true}}
			]},
			"aggregations": {
				"categories": {"buckets": [{"key": "electronics", "doc_count": 21}]},
				"brands": {"buckets": [{"key": "Samsung", "doc_count": 15}, {"key": "LG", "doc_count": 6}]}
			}
		}`
	})

	result, err := engine.Search(context.Background(), search.Query{Text: "galaxy", Size: 20})
	require.NoError(t, err)

	assert.Equal(t, int64(21), result.Total)
	assert.Equal(t, 2, result.TotalPages)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Galaxy Book", result.Items[0].Name)
	assert.Equal(t, 1500000.0, result.Items[0].Price)
	assert.Equal(t, []search.Facet{{Value: "electronics", Count: 21}}, result.Facets.Categories)
	assert.Len(t, result.Facets.Brands, 2)

	require.NotEmpty(t, cluster.requests)
	last := cluster.requests[len(cluster.requests)-1]
	assert.Equal(t, "/products/_search", last.path)
	assert.Contains(t, last.body, `"multi_match"`)
}

func TestSearchSurfacesClusterErrors(t *testing.T) {
	engine, _ := newTestEngine(t, func(r *http.Request) (int, string) {
		return http.StatusBadRequest, `{"error": {"type": "parsing_exception"}}`
	})

	_, err := engine.Search(context.Background(), search.Query{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing_exception")
}

func TestIndexSendsBulkNDJSON(t *testing.T) {
	engine, cluster := newTestEngine(t, func(r *http.Request) (int, string) {
		return http.StatusOK, `{"errors": false, "items": []}`
	})

	err := engine.Index(context.Background(),
		search.Document{ID: 1, Name: "A", Active: true},
		search.Document{ID: 2, Name: "B", Active: true},
	)
	require.NoError(t, err)

	require.Len(t, cluster.requests, 1)
	req := cluster.requests[0]
	assert.Equal(t, "/products/_bulk", req.path)

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(req.body))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index": {"_id": "1"}}`, lines[0])
	assert.JSONEq(t, `{"index": {"_id": "2"}}`, lines[2])
	assert.Contains(t, lines[3], `"name":"B"`)
}

func TestIndexReportsItemErrors(t *testing.T) {
	engine, _ := newTestEngine(t, func(r *http.Request) (int, string) {
		return http.StatusOK, `{"errors": true, "items": [{"index": {"_id": "1", "status": 400, "error": {"type": "mapper_parsing_exception", "reason": "failed to parse field [price]"}}}]}`
	})

	err := engine.Index(context.Background(), search.Document{ID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse field [price]")
}

func TestDeleteIgnoresMissingDocument(t *testing.T) {
	engine, cluster := newTestEngine(t, func(r *http.Request) (int, string) {
		return http.StatusNotFound, `{"result": "not_found"}`
	})

	require.NoError(t, engine.Delete(context.Background(), 7))
	assert.Equal(t, http.MethodDelete, cluster.requests[0].method)
	assert.Equal(t, "/products/_doc/7", cluster.requests[0].path)
}

func TestEnsureIndexCreatesMissingIndex(t *testing.T) {
	engine, cluster := newTestEngine(t, func(r *http.Request) (int, string) {
		if r.Method == http.MethodHead {
			return http.StatusNotFound, ``
		}
		return http.StatusOK, `{"acknowledged": true}`
	})

	require.NoError(t, engine.EnsureIndex(context.Background()))
	require.Len(t, cluster.requests, 2)
	assert.Equal(t, http.MethodPut, cluster.requests[1].method)
	assert.Contains(t, cluster.requests[1].body, `"scaled_float"`)
}

func TestSuggestCollectsNames(t *testing.T) {
	engine, cluster := newTestEngine(t, func(r *http.Request) (int, string) {
		return http.StatusOK, `{"hits": {"total": {"value": 2}, "hits": [{"_source": {"name": "노트북 프로"}}, {"_source": {"name": "노트북 에어"}}]}}`
	})

	names, err := engine.Suggest(context.Background(), "노트", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"노트북 프로", "노트북 에어"}, names)
	assert.Contains(t, cluster.requests[0].body, `"match_phrase_prefix"`)
}
