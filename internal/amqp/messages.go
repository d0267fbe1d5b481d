package amqp

import (
	"encoding/json"
	"time"
)

// MutationMessage announces that a state mutation committed. It carries only
// the entity, the action and the id; consumers fetch whatever they need from
// the current state.
type MutationMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMutationMessage(entity, action, id string) *MutationMessage {
	return &MutationMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
