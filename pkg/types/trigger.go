package types

import "time"

// TriggerContext is the normalized firing event passed from a trigger
// source to the executor. It is ephemeral: never persisted as its own
// entity, only echoed into run metadata.
type TriggerContext struct {
	Type      TriggerType    `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"` // when the context was built, not when the event occurred
}
