package trigger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sanketnighot/hookified/pkg/types"
)

// OnchainNotification is the provider's webhook envelope (Alchemy Notify
// custom webhooks): one block with the logs that matched the subscription
// filter.
type OnchainNotification struct {
	WebhookId string       `json:"webhookId"`
	Id        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	Type      string       `json:"type"`
	Event     OnchainEvent `json:"event"`
}

type OnchainEvent struct {
	Data struct {
		Block OnchainBlock `json:"block"`
	} `json:"data"`
	Network string `json:"network"`
}

type OnchainBlock struct {
	Hash      string       `json:"hash"`
	Number    int64        `json:"number"`
	Timestamp int64        `json:"timestamp"`
	Logs      []OnchainLog `json:"logs"`
}

type OnchainLog struct {
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
	Index   int      `json:"index"`
	Account struct {
		Address string `json:"address"`
	} `json:"account"`
	Transaction struct {
		Hash  string `json:"hash"`
		Index int    `json:"index"`
		From  struct {
			Address string `json:"address"`
		} `json:"from"`
		To struct {
			Address string `json:"address"`
		} `json:"to"`
	} `json:"transaction"`
}

// ParseOnchainNotification decodes the raw provider body.
func ParseOnchainNotification(body []byte) (*OnchainNotification, error) {
	var n OnchainNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("decode onchain notification: %w", err)
	}
	return &n, nil
}

// BuildOnchain normalizes a provider notification into one TriggerContext
// per matched log. A notification with zero logs is a valid no-op and
// yields zero contexts, not an error.
func BuildOnchain(n *OnchainNotification, now time.Time) []*types.TriggerContext {
	block := n.Event.Data.Block
	contexts := make([]*types.TriggerContext, 0, len(block.Logs))

	for _, l := range block.Logs {
		contexts = append(contexts, &types.TriggerContext{
			Type: types.TriggerOnchain,
			Data: map[string]any{
				"contract_address":  l.Account.Address,
				"topics":            l.Topics,
				"data":              l.Data,
				"log_index":         l.Index,
				"transaction_hash":  l.Transaction.Hash,
				"transaction_index": l.Transaction.Index,
				"from":              l.Transaction.From.Address,
				"to":                l.Transaction.To.Address,
				"block_hash":        block.Hash,
				"block_number":      block.Number,
				"block_timestamp":   block.Timestamp,
				"network":           n.Event.Network,
			},
			Timestamp: now,
		})
	}
	return contexts
}

// DedupeKey identifies one log delivery for duplicate suppression across
// provider retries.
func (l OnchainLog) DedupeKey() string {
	return fmt.Sprintf("%s:%d", l.Transaction.Hash, l.Index)
}
