package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client resolves user tokens against a Gitea-style identity service. The
// lookup is a black box to the rest of the gateway: a token either maps to a
// user or it doesn't.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type userResponse struct {
	Login    string `json:"login"`
	Username string `json:"username"`
}

// LookupUser resolves token to a username. found is false for a well-formed
// but unrecognized token; a transport failure or unexpected status is an
// error (the identity service is down, not the caller's fault).
func (c *Client) LookupUser(ctx context.Context, token string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/user", nil)
	if err != nil {
		return "", false, fmt.Errorf("identity request: %w", err)
	}
	req.Header.Set("Authorization", "token "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("identity service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user userResponse
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return "", false, fmt.Errorf("identity response: %w", err)
		}
		name := user.Login
		if name == "" {
			name = user.Username
		}
		return name, true, nil
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("identity service: unexpected status %d", resp.StatusCode)
	}
}
