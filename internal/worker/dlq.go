package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Reports whose delivery exhausted MaxReporteReintentos are parked on
// dlq:<queue> for manual resend. The row itself is already marked "error".
const (
	DLQPrefix = "dlq:"
	dlqMaxLen = 1000
)

var errSinRedis = errors.New("dlq: no redis client")

// DLQEntry is what an operator sees when inspecting the list.
type DLQEntry struct {
	Queue    string          `json:"queue"`
	JobType  string          `json:"job_type"`
	Payload  json.RawMessage `json:"payload"`
	Motivo   string          `json:"motivo"`
	Intentos int             `json:"intentos"`
	FalloEn  time.Time       `json:"fallo_en"`
}

func DLQKey(queue string) string { return DLQPrefix + queue }

// SendToDLQ pushes the entry and trims the list to the newest dlqMaxLen.
func SendToDLQ(ctx context.Context, rdb redis.Cmdable, entry DLQEntry) error {
	if rdb == nil {
		return errSinRedis
	}
	if entry.FalloEn.IsZero() {
		entry.FalloEn = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := DLQKey(entry.Queue)
	_, err = rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, data)
		p.LTrim(ctx, key, 0, dlqMaxLen-1)
		return nil
	})
	return err
}

// DLQLength is the backlog shown on /health.
func DLQLength(ctx context.Context, rdb redis.Cmdable, queue string) (int64, error) {
	if rdb == nil {
		return 0, errSinRedis
	}
	return rdb.LLen(ctx, DLQKey(queue)).Result()
}
