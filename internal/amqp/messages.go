package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChangeEvent tells other processes that an entity changed. It carries no
// payload; receivers refetch from the API.
type ChangeEvent struct {
	ID        uuid.UUID `json:"id"`
	Entity    string    `json:"entity"`
	Operation string    `json:"operation"`
	EntityID  int64     `json:"entityId"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent creates an event stamped with a fresh id and the current time.
func NewChangeEvent(origin, entity, operation string, entityID int64) *ChangeEvent {
	return &ChangeEvent{
		ID:        uuid.New(),
		Entity:    entity,
		Operation: operation,
		EntityID:  entityID,
		Origin:    origin,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes an event from JSON bytes
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
