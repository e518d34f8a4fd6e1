package amqp

import (
	"encoding/json"
	"time"
)

// Reasons carried on sync request messages.
const (
	ReasonTransaction = "transaction"
	ReasonSettings    = "settings"
	ReasonImport      = "import"
)

// SyncRequestMessage asks the worker to push the local state to the
// spreadsheet. It carries only the revision that triggered it; the worker
// reads the full table from the database.
type SyncRequestMessage struct {
	Revision  int64     `json:"revision"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncRequestMessage(revision int64, reason string) *SyncRequestMessage {
	return &SyncRequestMessage{
		Revision:  revision,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
