// internal/pkg/metrics/sink.go
package metrics

import (
	"sort"
	"strings"
)

// Metric names shared across services
const (
	UserRegistrations      = "user_registrations_total"
	OrdersCreated          = "orders_created_total"
	Revenue                = "revenue_total"
	PaymentTransactions    = "payment_transactions_total"
	EventsPublished        = "events_published_total"
	EventPublishDuration   = "event_publish_duration_seconds"
	EventsConsumed         = "events_consumed_total"
	SearchQueries          = "search_queries_total"
	SearchQueryDuration    = "search_query_duration_seconds"
	SearchIndexed          = "search_index_products_total"
	ProductCache           = "product_cache_total"
	HTTPRequests           = "http_requests_total"
	HTTPRequestDuration    = "http_request_duration_seconds"
	NotificationsDelivered = "notifications_delivered_total"
)

// Tags label a single observation
type Tags map[string]string

// Sink receives counters and timings. Implementations must be safe for concurrent use.
type Sink interface {
	Inc(name string, tags Tags)
	Add(name string, value float64, tags Tags)
	Observe(name string, seconds float64, tags Tags)
}

// Discard is a Sink that drops everything
var Discard Sink = discard{}

type discard struct{}

func (discard) Inc(string, Tags)              {}
func (discard) Add(string, float64, Tags)     {}
func (discard) Observe(string, float64, Tags) {}

func (t Tags) keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func seriesKey(name string, tags Tags) string {
	var b strings.Builder
	b.WriteString(name)
	for _, k := range tags.keys() {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	return b.String()
}
