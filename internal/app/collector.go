package app

import "quote_spider/internal/models"

// ResultCollector accumulates the records of exactly one run. Only the
// orchestrator bound to that run appends to it, so it needs no locking.
type ResultCollector struct {
	records []models.Record
}

func newResultCollector() *ResultCollector {
	return &ResultCollector{records: make([]models.Record, 0)}
}

func (c *ResultCollector) Append(r models.Record) {
	c.records = append(c.records, r)
}

func (c *ResultCollector) Len() int {
	return len(c.records)
}

// Drain hands the accumulated records to the caller and empties the collector.
func (c *ResultCollector) Drain() []models.Record {
	out := c.records
	c.records = make([]models.Record, 0)
	return out
}
