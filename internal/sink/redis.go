package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pfrederiksen/odds-alchemist/internal/odds"
)

// RedisSink publishes each record to a Redis stream
type RedisSink struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// streamMessage is the JSON carried in the "data" field of each entry
type streamMessage struct {
	RunID      string        `json:"run_id"`
	CapturedAt string        `json:"captured_at"`
	Range      string        `json:"range"`
	Row        []interface{} `json:"row"`
	odds.Record
}

// NewRedisSink creates a sink publishing to streams named <prefix>.<range>
func NewRedisSink(client *redis.Client, prefix string, log *zap.Logger) *RedisSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisSink{client: client, prefix: prefix, log: log}
}

// StreamKey returns the stream a batch for rangeID is published to
func (s *RedisSink) StreamKey(rangeID string) string {
	return fmt.Sprintf("%s.%s", s.prefix, rangeID)
}

// Append publishes the batch in a single pipeline
func (s *RedisSink) Append(ctx context.Context, b Batch) (int64, error) {
	if len(b.Records) == 0 {
		return 0, nil
	}

	messages, err := encodeMessages(b)
	if err != nil {
		return 0, err
	}

	streamKey := s.StreamKey(b.Range)
	pipe := s.client.Pipeline()
	for _, data := range messages {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: streamKey,
			Values: map[string]interface{}{
				"data": data,
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("publishing to stream %s: %w", streamKey, err)
	}

	updated := b.Cells()
	s.log.Info("odds published",
		zap.String("run_id", b.RunID.String()),
		zap.String("stream", streamKey),
		zap.Int("entries", len(messages)),
	)
	return updated, nil
}

// Close closes the redis client
func (s *RedisSink) Close() error {
	return s.client.Close()
}

func encodeMessages(b Batch) ([]string, error) {
	timestamp := b.Timestamp()
	out := make([]string, 0, len(b.Records))
	for _, r := range b.Records {
		data, err := json.Marshal(streamMessage{
			RunID:      b.RunID.String(),
			CapturedAt: timestamp,
			Range:      b.Range,
			Row:        r.SheetRow(timestamp),
			Record:     r,
		})
		if err != nil {
			return nil, fmt.Errorf("encoding horse %s: %w", r.HorseNumber, err)
		}
		out = append(out, string(data))
	}
	return out, nil
}
