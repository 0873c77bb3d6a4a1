// Package events publishes ingest notifications on Redis pub/sub so other
// services can refresh their view of the vacancy tables.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/logger"
	"jobmate/vacancy-service/internal/model"
)

// ChannelIngested is the channel every successful ingest is announced on.
const ChannelIngested = "EVENT_VACANCIES_INGESTED"

// Ingested is the payload published on ChannelIngested.
type Ingested struct {
	Type       string `json:"type"`
	Source     string `json:"source"`
	EmployerID int64  `json:"employerId,omitempty"`
	model.IngestStats
	At time.Time `json:"at"`
}

// Publisher announces ingests. A Publisher with a nil client does nothing.
type Publisher struct {
	rdb *redis.Client
	log zerolog.Logger
	now func() time.Time
}

// NewPublisher returns a Publisher. rdb may be nil.
func NewPublisher(rdb *redis.Client, log zerolog.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: logger.Component(log, "events"), now: time.Now}
}

// Ingested publishes the outcome of one ingest. Failures are logged and never
// returned: a missed notification must not fail the ingest that caused it.
func (p *Publisher) Ingested(ctx context.Context, source string, employerID int64, stats model.IngestStats) {
	if p == nil || p.rdb == nil {
		return
	}

	payload, err := json.Marshal(Ingested{
		Type:        ChannelIngested,
		Source:      source,
		EmployerID:  employerID,
		IngestStats: stats,
		At:          p.now().UTC(),
	})
	if err != nil {
		p.log.Warn().Err(err).Msg("marshal ingest event")
		return
	}

	if err := p.rdb.Publish(ctx, ChannelIngested, payload).Err(); err != nil {
		p.log.Warn().Err(err).Msg("publish ingest event failed")
	}
}
