package keys

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ES256Mode(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManager(dir, "")
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}

	if m.IsLegacyMode() {
		t.Error("empty secret should select ES256 mode")
	}
	if m.GetAnonKey() == "" || m.GetServiceKey() == "" {
		t.Error("API keys not generated")
	}
	if m.GetAnonKey() == m.GetServiceKey() {
		t.Error("anon and service keys are identical")
	}
	if len(m.GetProjectRef()) != 20 {
		t.Errorf("project ref length = %d, want 20", len(m.GetProjectRef()))
	}
	if _, err := os.Stat(filepath.Join(dir, "keys.json")); err != nil {
		t.Errorf("keys.json not persisted: %v", err)
	}
}

func TestManager_KeysReloadedAcrossRestarts(t *testing.T) {
	dir := t.TempDir()

	first, err := NewManager(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewManager(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	if first.GetAnonKey() != second.GetAnonKey() {
		t.Error("anon key changed across restarts")
	}
	if first.GetServiceKey() != second.GetServiceKey() {
		t.Error("service key changed across restarts")
	}
	if first.GetProjectRef() != second.GetProjectRef() {
		t.Error("project ref changed across restarts")
	}
}

func TestManager_CorruptKeysFileRegenerates(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "keys.json"), []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir, "")
	if err != nil {
		t.Fatalf("NewManager() failed on corrupt keys file: %v", err)
	}
	if m.GetAnonKey() == "" {
		t.Error("no keys generated after corrupt file")
	}
}

func TestManager_LegacyMode(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManager(dir, "legacy-secret")
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}

	if !m.IsLegacyMode() {
		t.Error("secret should select legacy mode")
	}
	if m.GetAnonKey() == "" || m.GetServiceKey() == "" {
		t.Error("API keys not generated")
	}
	if _, err := os.Stat(filepath.Join(dir, "keys.json")); !os.IsNotExist(err) {
		t.Error("legacy mode must not persist keys")
	}
	if _, err := m.GetJWKS(); err == nil {
		t.Error("GetJWKS() available in legacy mode")
	}
}

func TestManager_VerifyToken(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManager(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	token, err := m.VerifyToken(m.GetServiceKey())
	if err != nil {
		t.Fatalf("VerifyToken() rejected own service key: %v", err)
	}
	role, _ := token.Get("role")
	if role != RoleService {
		t.Errorf("role = %v, want %q", role, RoleService)
	}
	if token.Issuer() != Issuer {
		t.Errorf("issuer = %q, want %q", token.Issuer(), Issuer)
	}

	if _, err := m.VerifyToken("garbage"); err == nil {
		t.Error("VerifyToken() accepted garbage")
	}

	// A token signed by a different instance must not verify.
	other, err := NewManager(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.VerifyToken(other.GetAnonKey()); err == nil {
		t.Error("VerifyToken() accepted a foreign key")
	}
}

func TestManager_JWKS(t *testing.T) {
	m, err := NewManager(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	jwks, err := m.GetJWKS()
	if err != nil {
		t.Fatalf("GetJWKS() failed: %v", err)
	}

	entries, ok := jwks["keys"].([]map[string]interface{})
	if !ok || len(entries) != 1 {
		t.Fatalf("jwks keys = %v", jwks["keys"])
	}
	key := entries[0]
	if key["kid"] != KeyID || key["alg"] != "ES256" || key["crv"] != "P-256" {
		t.Errorf("unexpected JWKS entry: %v", key)
	}
}
