package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ftthdiag/diagchat/models"
)

// PortalAdapter calls one of the form-post diagnostic portals (router 815,
// router 7750, Altiplano, SimpleFibra). Each portal takes an action code
// plus a single identifier field and replies with {"result": ...}.
type PortalAdapter struct {
	ToolName    string
	Description string
	Endpoint    string
	Action      string
	FormField   string // form field carrying the identifier, e.g. "CID"
	ArgName     string // tool argument name, e.g. "customerID"
	ArgDesc     string
	Timeout     time.Duration
}

func (a *PortalAdapter) Declaration() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        a.ToolName,
		Description: a.Description,
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				a.ArgName: map[string]interface{}{
					"type":        "string",
					"description": a.ArgDesc,
				},
			},
			Required: []string{a.ArgName},
		},
	}
}

func (a *PortalAdapter) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	identifier := stringArg(args, a.ArgName)
	if identifier == "" {
		return "", fmt.Errorf("%s argument is required", a.ArgName)
	}

	form := url.Values{}
	form.Set("action", a.Action)
	form.Set(a.FormField, identifier)

	return postForm(ctx, a.Endpoint, form, a.Timeout)
}

// postForm submits an urlencoded form and unwraps the portal's JSON reply.
// Portals answer {"result": ...} on success and {"error": ...} on failure.
func postForm(ctx context.Context, endpoint string, form url.Values, timeout time.Duration) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("portal endpoint is not configured")
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error al contactar el servicio: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("portal request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Not the expected envelope; hand the raw body to the model.
		return string(body), nil
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("%s", parsed.Error)
	}

	// Result may be a JSON string or any structure; strings come back bare.
	var asString string
	if json.Unmarshal(parsed.Result, &asString) == nil {
		return asString, nil
	}
	return string(parsed.Result), nil
}
