package amqp

import (
	"encoding/json"
	"time"
)

// DatasetReplacedMessage announces that the seed loader swapped the whole
// transaction collection. Consumers typically invalidate report caches.
type DatasetReplacedMessage struct {
	Count      int       `json:"count"`
	Source     string    `json:"source"`
	ReplacedAt time.Time `json:"replacedAt"`
}

func NewDatasetReplacedMessage(count int, source string) *DatasetReplacedMessage {
	return &DatasetReplacedMessage{
		Count:      count,
		Source:     source,
		ReplacedAt: time.Now().UTC(),
	}
}

func (m *DatasetReplacedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DatasetReplacedMessageFromJSON(data []byte) (*DatasetReplacedMessage, error) {
	var m DatasetReplacedMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
