// internal/domain/search/service.go
package search

import (
	"context"
	"strings"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/domain/product"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const defaultSuggestLimit = 10

// Catalog supplies every product for a full reindex
type Catalog interface {
	All(ctx context.Context) ([]product.Product, error)
}

// Service fronts the configured engine. It also keeps the index in step with
// catalog writes by implementing product.Indexer.
type Service struct {
	engine  Engine
	catalog Catalog
	metrics metrics.Sink
	logger  logrus.FieldLogger
}

// NewService creates a new search service
func NewService(engine Engine, catalog Catalog, sink metrics.Sink, logger logrus.FieldLogger) *Service {
	return &Service{
		engine:  engine,
		catalog: catalog,
		metrics: sink,
		logger:  logger,
	}
}

// Search runs a full-text or faceted query
func (s *Service) Search(ctx context.Context, q Query) (*Result, error) {
	q = q.Normalize()
	kind := "fulltext"
	if q.Faceted() {
		kind = "faceted"
	}

	start := time.Now()
	result, err := s.engine.Search(ctx, q)
	s.metrics.Observe(metrics.SearchQueryDuration, time.Since(start).Seconds(), metrics.Tags{"type": kind})
	if err != nil {
		return nil, err
	}
	s.metrics.Inc(metrics.SearchQueries, metrics.Tags{"type": kind})

	s.logger.WithFields(logrus.Fields{
		"query": q.Text,
		"type":  kind,
		"total": result.Total,
	}).Debug("search executed")
	return result, nil
}

// Autocomplete returns distinct product names for a prefix
func (s *Service) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultSuggestLimit
	}

	names, err := s.engine.Suggest(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	s.metrics.Inc(metrics.SearchQueries, metrics.Tags{"type": "autocomplete"})
	return dedupe(names, limit), nil
}

// Reindex pushes every active product to the engine and returns how many were indexed
func (s *Service) Reindex(ctx context.Context) (int, error) {
	products, err := s.catalog.All(ctx)
	if err != nil {
		return 0, err
	}

	docs := make([]Document, 0, len(products))
	for i := range products {
		if !products[i].IsActive {
			if err := s.engine.Delete(ctx, products[i].ID); err != nil {
				return 0, err
			}
			continue
		}
		docs = append(docs, FromProduct(product.ToDTO(&products[i])))
	}

	if len(docs) > 0 {
		if err := s.engine.Index(ctx, docs...); err != nil {
			return 0, err
		}
	}
	s.metrics.Add(metrics.SearchIndexed, float64(len(docs)), nil)

	s.logger.WithField("count", len(docs)).Info("search index rebuilt")
	return len(docs), nil
}

// IndexProduct upserts an active product and drops an inactive one
func (s *Service) IndexProduct(ctx context.Context, p product.ProductDTO) error {
	if !p.IsActive {
		return s.engine.Delete(ctx, p.ID)
	}
	if err := s.engine.Index(ctx, FromProduct(p)); err != nil {
		return err
	}
	s.metrics.Inc(metrics.SearchIndexed, nil)
	return nil
}

// RemoveProduct drops a product from the index
func (s *Service) RemoveProduct(ctx context.Context, id uint) error {
	return s.engine.Delete(ctx, id)
}

func dedupe(names []string, limit int) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
		if len(out) == limit {
			break
		}
	}
	return out
}
