package types

import "time"

// TriggerType is the closed set of trigger kinds a hook can be bound to.
type TriggerType string

const (
	TriggerOnchain TriggerType = "ONCHAIN"
	TriggerCron    TriggerType = "CRON"
	TriggerWebhook TriggerType = "WEBHOOK"
	TriggerManual  TriggerType = "MANUAL"
)

// Valid reports whether t is one of the known trigger kinds.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerOnchain, TriggerCron, TriggerWebhook, TriggerManual:
		return true
	}
	return false
}

// ActionType is the closed set of action kinds.
type ActionType string

const (
	ActionTelegram     ActionType = "TELEGRAM"
	ActionWebhook      ActionType = "WEBHOOK"
	ActionContractCall ActionType = "CONTRACT_CALL"
	ActionChain        ActionType = "CHAIN"
)

// Valid reports whether a is one of the known action kinds.
func (a ActionType) Valid() bool {
	switch a {
	case ActionTelegram, ActionWebhook, ActionContractCall, ActionChain:
		return true
	}
	return false
}

// HookStatus is the lifecycle status of a hook. Transitions are owned by
// the hooks service: user toggles move between ACTIVE and PAUSED, execution
// paths may flip to ERROR, and only a user toggle leaves ERROR.
type HookStatus string

const (
	HookStatusActive HookStatus = "ACTIVE"
	HookStatusPaused HookStatus = "PAUSED"
	HookStatusError  HookStatus = "ERROR"
)

// CronTriggerConfig configures a CRON hook. The expression is validated
// against the scheduler's parser at registration time.
type CronTriggerConfig struct {
	Expression string `json:"expression"`
	Timezone   string `json:"timezone,omitempty"`
}

// OnchainTriggerConfig configures an ONCHAIN hook.
type OnchainTriggerConfig struct {
	ContractAddress string `json:"contract_address"`
	EventSignature  string `json:"event_signature"`
	ChainId         int64  `json:"chain_id"`
}

// WebhookTriggerConfig configures a WEBHOOK hook. An empty secret disables
// signature verification for that hook.
type WebhookTriggerConfig struct {
	Secret string `json:"secret,omitempty"`
}

// TriggerConfig is the tagged union of per-kind trigger configuration.
// Exactly the field matching the hook's TriggerType is set; MANUAL hooks
// carry none.
type TriggerConfig struct {
	Cron    *CronTriggerConfig    `json:"cron,omitempty"`
	Onchain *OnchainTriggerConfig `json:"onchain,omitempty"`
	Webhook *WebhookTriggerConfig `json:"webhook,omitempty"`
}

// ForType returns the variant matching the trigger type, or false when the
// required variant is absent (MANUAL always matches, WEBHOOK's secret is
// optional).
func (c TriggerConfig) ForType(t TriggerType) (any, bool) {
	switch t {
	case TriggerCron:
		return c.Cron, c.Cron != nil
	case TriggerOnchain:
		return c.Onchain, c.Onchain != nil
	case TriggerWebhook:
		if c.Webhook == nil {
			return &WebhookTriggerConfig{}, true
		}
		return c.Webhook, true
	case TriggerManual:
		return nil, true
	}
	return nil, false
}

// TelegramActionConfig sends a message through the Telegram Bot API.
type TelegramActionConfig struct {
	ChatId  string `json:"chat_id"`
	Message string `json:"message"`
}

// WebhookActionConfig calls an external HTTP endpoint.
type WebhookActionConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"` // defaults to POST
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// ContractCallActionConfig performs a read-only EVM call via JSON-RPC.
type ContractCallActionConfig struct {
	RpcURL          string `json:"rpc_url"`
	ContractAddress string `json:"contract_address"`
	CallData        string `json:"call_data"` // 0x-prefixed ABI-encoded input
}

// ChainActionConfig triggers another hook owned by the same user.
type ChainActionConfig struct {
	HookId string `json:"hook_id"`
}

// ActionConfig is the tagged union of per-kind action configuration.
type ActionConfig struct {
	Telegram     *TelegramActionConfig     `json:"telegram,omitempty"`
	Webhook      *WebhookActionConfig      `json:"webhook,omitempty"`
	ContractCall *ContractCallActionConfig `json:"contract_call,omitempty"`
	Chain        *ChainActionConfig        `json:"chain,omitempty"`
}

// ActionBlock is one step in a hook's ordered action pipeline.
type ActionBlock struct {
	Id     string       `json:"id"`
	Order  int          `json:"order"`
	Type   ActionType   `json:"type"`
	Config ActionConfig `json:"config"`
}

// Hook is a user's automation definition: one trigger, an ordered list
// of actions, and the lifecycle state that gates whether it fires.
type Hook struct {
	Id             uint          `json:"id" db:"id"`
	ExternalId     string        `json:"external_id" db:"external_id"`
	UserId         uint          `json:"user_id" db:"user_id"`
	Name           string        `json:"name" db:"name"`
	TriggerType    TriggerType   `json:"trigger_type" db:"trigger_type"`
	TriggerConfig  TriggerConfig `json:"trigger_config" db:"trigger_config"`
	Actions        []ActionBlock `json:"actions" db:"actions"`
	Status         HookStatus    `json:"status" db:"status"`
	IsActive       bool          `json:"is_active" db:"is_active"`
	SubscriptionId string        `json:"subscription_id,omitempty" db:"subscription_id"` // provider webhook id for ONCHAIN hooks
	LastExecutedAt *time.Time    `json:"last_executed_at,omitempty" db:"last_executed_at"`
	LastCheckedAt  *time.Time    `json:"last_checked_at,omitempty" db:"last_checked_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// CanAutoFire reports whether scheduled/webhook/onchain firings are allowed.
// Manual firings bypass this gate (a human retrying an ERROR hook is allowed).
func (h *Hook) CanAutoFire() bool {
	return h.IsActive && h.Status != HookStatusError
}

// WebhookSecret returns the configured shared secret, if any.
func (h *Hook) WebhookSecret() string {
	if h.TriggerConfig.Webhook == nil {
		return ""
	}
	return h.TriggerConfig.Webhook.Secret
}
