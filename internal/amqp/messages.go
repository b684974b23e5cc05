package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// BackupRequestMessage asks the worker to write a snapshot of the local
// dataset. It carries no data; the worker reads the store itself.
type BackupRequestMessage struct {
	ID        string    `json:"id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBackupRequestMessage creates a request with a fresh ID.
func NewBackupRequestMessage(reason string) *BackupRequestMessage {
	return &BackupRequestMessage{
		ID:        uuid.NewString(),
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BackupRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BackupRequestMessageFromJSON decodes and checks a message body.
func BackupRequestMessageFromJSON(data []byte) (*BackupRequestMessage, error) {
	var msg BackupRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, errors.New("backup request without a valid id")
	}
	return &msg, nil
}
