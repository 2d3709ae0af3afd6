// Package onchain owns the mapping between ONCHAIN hooks and log
// subscriptions on the external notification provider (Alchemy Notify),
// and translates provider payloads into trigger contexts.
package onchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sanketnighot/hookified/pkg/types"
)

const defaultDashboardURL = "https://dashboard.alchemy.com"

// ProviderClient manages log subscriptions on the notification provider.
type ProviderClient interface {
	// CreateWebhook registers a subscription and returns the
	// provider-assigned id.
	CreateWebhook(ctx context.Context, cfg *types.OnchainTriggerConfig, callbackURL string) (string, error)
	// DeleteWebhook removes a subscription.
	DeleteWebhook(ctx context.Context, webhookId string) error
}

// AlchemyClient talks to the Alchemy Notify dashboard API.
type AlchemyClient struct {
	httpClient   *http.Client
	authToken    string
	dashboardURL string
}

func NewAlchemyClient(cfg types.OnchainConfig) *AlchemyClient {
	base := cfg.DashboardURL
	if base == "" {
		base = defaultDashboardURL
	}
	return &AlchemyClient{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		authToken:    cfg.AuthToken,
		dashboardURL: base,
	}
}

// networkName maps an EVM chain id to Alchemy's network identifier.
func networkName(chainId int64) (string, error) {
	switch chainId {
	case 1:
		return "ETH_MAINNET", nil
	case 11155111:
		return "ETH_SEPOLIA", nil
	case 137:
		return "MATIC_MAINNET", nil
	case 8453:
		return "BASE_MAINNET", nil
	case 84532:
		return "BASE_SEPOLIA", nil
	case 42161:
		return "ARB_MAINNET", nil
	case 10:
		return "OPT_MAINNET", nil
	}
	return "", fmt.Errorf("unsupported chain id %d", chainId)
}

// graphqlQuery builds the custom-webhook filter for a contract's logs,
// optionally narrowed to one event signature topic.
func graphqlQuery(cfg *types.OnchainTriggerConfig) string {
	topics := ""
	if cfg.EventSignature != "" {
		topics = fmt.Sprintf(`, topics: [%q]`, cfg.EventSignature)
	}
	return fmt.Sprintf(`{
  block {
    hash
    number
    timestamp
    logs(filter: {addresses: [%q]%s}) {
      topics
      data
      index
      account { address }
      transaction {
        hash
        index
        from { address }
        to { address }
      }
    }
  }
}`, cfg.ContractAddress, topics)
}

func (c *AlchemyClient) CreateWebhook(ctx context.Context, cfg *types.OnchainTriggerConfig, callbackURL string) (string, error) {
	network, err := networkName(cfg.ChainId)
	if err != nil {
		return "", err
	}

	body, _ := json.Marshal(map[string]any{
		"network":       network,
		"webhook_type":  "GRAPHQL",
		"webhook_url":   callbackURL,
		"graphql_query": graphqlQuery(cfg),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.dashboardURL+"/api/create-webhook", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Alchemy-Token", c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("create webhook: provider returned %d: %s", resp.StatusCode, string(respBody))
	}

	var created struct {
		Data struct {
			Id string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("decode create-webhook response: %w", err)
	}
	if created.Data.Id == "" {
		return "", fmt.Errorf("provider returned no webhook id")
	}
	return created.Data.Id, nil
}

func (c *AlchemyClient) DeleteWebhook(ctx context.Context, webhookId string) error {
	url := fmt.Sprintf("%s/api/delete-webhook?webhook_id=%s", c.dashboardURL, webhookId)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Alchemy-Token", c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return fmt.Errorf("delete webhook: provider returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

var _ ProviderClient = (*AlchemyClient)(nil)
