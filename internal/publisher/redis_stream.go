// Package publisher announces rebuilt rows on Redis streams.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/rinkside/internal/advstats"
)

// RowStream carries one message per written derived row.
const RowStream = "advstats.rows.hockey_nhl"

// DefaultMaxLen caps the stream length, approximately.
const DefaultMaxLen int64 = 100_000

// RedisStreamPublisher publishes rows to a Redis stream
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	now    func() time.Time
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: RowStream,
		maxLen: DefaultMaxLen,
		now:    time.Now,
	}
}

// Stream returns the stream name.
func (p *RedisStreamPublisher) Stream() string { return p.stream }

// RowMessage renders the stream fields of one row.
func RowMessage(runID string, row advstats.PlayerGameRow, at time.Time) (map[string]interface{}, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"run_id":       runID,
		"game_id":      row.GameID,
		"player_id":    row.PlayerID,
		"state_key":    string(row.Slice),
		"calc_version": row.CalcVersion,
		"data":         string(data),
		"timestamp":    at.Unix(),
	}, nil
}

// PublishRows appends one message per row in a single pipeline.
func (p *RedisStreamPublisher) PublishRows(ctx context.Context, runID string, rows []advstats.PlayerGameRow) error {
	if len(rows) == 0 {
		return nil
	}

	at := p.now()
	pipe := p.client.Pipeline()
	for i := range rows {
		values, err := RowMessage(runID, rows[i], at)
		if err != nil {
			return fmt.Errorf("encoding row for game %d player %d: %w", rows[i].GameID, rows[i].PlayerID, err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Approx: true,
			Values: values,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.stream, err)
	}
	return nil
}
