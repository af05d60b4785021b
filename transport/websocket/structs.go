package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player *entity.Player    `json:"player,omitempty"`
	Spot   *entity.Position  `json:"spot,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
	View   string            `json:"view,omitempty"`
	Error  string            `json:"error,omitempty"`
}
