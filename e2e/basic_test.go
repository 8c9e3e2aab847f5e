package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/markb/galerie/internal/config"
	"github.com/markb/galerie/internal/server"
)

func TestServer_Startup(t *testing.T) {
	// Create server with test ports
	srv := server.New(&config.Config{
		Host:         "127.0.0.1",
		Port:         18080,
		DataDir:      t.TempDir(),
		AuthMode:     config.AuthModeLocal,
		JWTSecret:    "test-secret",
		SiteURL:      "http://localhost:18080",
		MinLoadingMs: 1,
		Mail:         &config.MailConfig{},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		err := srv.Start(ctx)
		if err != nil && err != context.Canceled {
			t.Logf("Server start error: %v", err)
		}
		errCh <- err
	}()

	// Wait for startup with retries
	var resp *http.Response
	var err error

	t.Log("Waiting for server to start...")
	for i := 0; i < 30; i++ {
		time.Sleep(500 * time.Millisecond)
		resp, err = http.Get("http://127.0.0.1:18080/health")
		if err == nil {
			break
		}
	}

	if err != nil {
		t.Fatalf("Health check failed after 30 attempts: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Health check returned status %d", resp.StatusCode)
	}

	t.Log("Health check passed!")

	// The seeded catalog is served right away
	worksResp, err := http.Get("http://127.0.0.1:18080/api/works")
	if err != nil {
		t.Fatalf("works listing failed: %v", err)
	}
	defer worksResp.Body.Close()

	var view struct {
		Items []struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"items"`
	}
	if err := json.NewDecoder(worksResp.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode works listing: %v", err)
	}
	if len(view.Items) != 6 {
		t.Errorf("expected 6 seeded works, got %d", len(view.Items))
	}

	// First login with the default credentials owes a password change
	loginResp := postJSON(t, "http://127.0.0.1:18080/api/admin/login", map[string]string{
		"username": "smithLePlusBeau",
		"password": "1234",
	})
	defer loginResp.Body.Close()

	var login struct {
		State string `json:"state"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&login); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if login.State != "pending_password_change" {
		t.Errorf("expected state pending_password_change on first login, got %q", login.State)
	}
	if login.Token != "" {
		t.Error("expected no session token before the password change")
	}

	// Cancel to trigger shutdown
	cancel()

	// Verify clean shutdown
	if err := <-errCh; err != nil && err != context.Canceled {
		t.Errorf("Server error: %v", err)
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("POST %s returned status %d", url, resp.StatusCode)
	}
	return resp
}
