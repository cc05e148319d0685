package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ZabbixClient speaks JSON-RPC 2.0 to a Zabbix server. All monitored
// clients except those on 7750 routers live here.
type ZabbixClient struct {
	URL    string
	Token  string
	Client *http.Client
}

// NewZabbixClient creates a client for the given endpoint and API token.
func NewZabbixClient(url, token string) *ZabbixClient {
	return &ZabbixClient{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

type zabbixRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	Auth    string      `json:"auth"`
	ID      int         `json:"id"`
}

type zabbixResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    string `json:"data"`
	} `json:"error,omitempty"`
	ID int `json:"id"`
}

// Call invokes one Zabbix API method and returns the raw result.
func (z *ZabbixClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if z.URL == "" || z.Token == "" {
		return nil, fmt.Errorf("zabbix URL or token is not configured")
	}

	body, err := json.Marshal(zabbixRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		Auth:    z.Token,
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal zabbix request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", z.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json-rpc")

	resp, err := z.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to Zabbix API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Zabbix API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var zresp zabbixResponse
	if err := json.Unmarshal(respBody, &zresp); err != nil {
		return nil, fmt.Errorf("error unmarshalling Zabbix API response: %w", err)
	}
	if zresp.Error != nil {
		return nil, fmt.Errorf("Zabbix API error: %s - %s", zresp.Error.Message, zresp.Error.Data)
	}
	return zresp.Result, nil
}

type zabbixHost struct {
	HostID string `json:"hostid"`
	Host   string `json:"host"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Groups []struct {
		Name string `json:"name"`
	} `json:"groups"`
}

type zabbixProblem struct {
	Name string `json:"name"`
}
