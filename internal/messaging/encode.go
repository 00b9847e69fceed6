// Package messaging publishes generated records to Kafka or NATS, one JSON
// message per record.
package messaging

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/guttosm/varpulse/internal/channel"
	"github.com/guttosm/varpulse/internal/domain/models"
)

const DefaultPrefix = "varpulse."

type encoded struct {
	key   []byte
	value []byte
}

// encode serializes every record of msg, keyed by its id.
func encode(msg channel.Message) ([]encoded, error) {
	records := msg.Records()
	out := make([]encoded, len(records))
	for i, r := range records {
		value, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode %s record %d: %w", msg.Name(), i, err)
		}
		out[i] = encoded{key: recordKey(r), value: value}
	}
	return out, nil
}

func recordKey(r any) []byte {
	switch v := r.(type) {
	case models.Product:
		return strconv.AppendInt(nil, int64(v.Id), 10)
	case models.Trade:
		return strconv.AppendInt(nil, v.Id, 10)
	case models.Risk:
		return strconv.AppendInt(nil, v.TradeId, 10)
	default:
		return nil
	}
}
