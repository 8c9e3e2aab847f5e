package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/markb/galerie/internal/session"
)

// Client talks to an auth API over HTTP and satisfies the remote
// strategy's client interface. It works against the embedded emulation
// and against a real hosted project alike.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for the auth API rooted at baseURL
// (".../auth/v1"). apiKey is sent as the apikey header when non-empty.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	body, resp, err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentialsBody{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return "", session.ErrSignInRejected
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign-in failed with status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("malformed sign-in response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("sign-in response carried no access token")
	}
	return tok.AccessToken, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) error {
	_, resp, err := c.do(ctx, http.MethodPost, "/signup", "", credentialsBody{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sign-up failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, resp, err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sign-out failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) UpdateUser(ctx context.Context, accessToken, newPassword string) error {
	_, resp, err := c.do(ctx, http.MethodPut, "/user", accessToken, map[string]string{
		"password": newPassword,
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user update failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, payload interface{}) ([]byte, *http.Response, error) {
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewBuffer(data)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), resp, nil
}
