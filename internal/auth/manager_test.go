package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndGetCredentials(t *testing.T) {
	t.Setenv("HF_TOKEN", "")
	dir := t.TempDir()
	m := NewManagerWithDir(dir, "")

	in := &Credentials{Token: "hf_test123", Username: "alice"}
	if err := m.SaveCredentials(in); err != nil {
		t.Fatalf("SaveCredentials() error = %v", err)
	}

	out, err := m.GetCredentials()
	if err != nil {
		t.Fatalf("GetCredentials() error = %v", err)
	}
	if out == nil {
		t.Fatal("GetCredentials() = nil, want credentials")
	}
	if out.Token != "hf_test123" {
		t.Errorf("Token = %q, want %q", out.Token, "hf_test123")
	}
	if out.Username != "alice" {
		t.Errorf("Username = %q, want %q", out.Username, "alice")
	}
}

func TestGetCredentialsMissing(t *testing.T) {
	t.Setenv("HF_TOKEN", "")
	m := NewManagerWithDir(t.TempDir(), "")

	creds, err := m.GetCredentials()
	if err != nil {
		t.Fatalf("GetCredentials() error = %v", err)
	}
	if creds != nil {
		t.Errorf("GetCredentials() = %+v, want nil for missing file", creds)
	}
}

func TestGetCredentialsEnvOverride(t *testing.T) {
	t.Setenv("HF_TOKEN", "hf_fromenv")
	m := NewManagerWithDir(t.TempDir(), "")

	creds, err := m.GetCredentials()
	if err != nil {
		t.Fatalf("GetCredentials() error = %v", err)
	}
	if creds == nil || creds.Token != "hf_fromenv" {
		t.Errorf("GetCredentials() = %+v, want env token", creds)
	}
}

func TestGetCredentialsHFTokenFile(t *testing.T) {
	t.Setenv("HF_TOKEN", "")
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")
	if err := os.WriteFile(tokenPath, []byte("hf_fromhfcli\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewManagerWithDir(filepath.Join(dir, "config"), tokenPath)

	creds, err := m.GetCredentials()
	if err != nil {
		t.Fatalf("GetCredentials() error = %v", err)
	}
	if creds == nil || creds.Token != "hf_fromhfcli" {
		t.Errorf("GetCredentials() = %+v, want hf cli token (trimmed)", creds)
	}
}

func TestSaveCredentialsPermissions(t *testing.T) {
	dir := t.TempDir()
	m := NewManagerWithDir(dir, "")

	if err := m.SaveCredentials(&Credentials{Token: "hf_x"}); err != nil {
		t.Fatalf("SaveCredentials() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credentials file mode = %o, want 600", perm)
	}
}

func TestClearCredentials(t *testing.T) {
	t.Setenv("HF_TOKEN", "")
	dir := t.TempDir()
	m := NewManagerWithDir(dir, "")

	if err := m.SaveCredentials(&Credentials{Token: "hf_x"}); err != nil {
		t.Fatal(err)
	}
	if err := m.ClearCredentials(); err != nil {
		t.Fatalf("ClearCredentials() error = %v", err)
	}
	if m.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after clear, want false")
	}

	// Clearing twice must not error.
	if err := m.ClearCredentials(); err != nil {
		t.Errorf("ClearCredentials() second call error = %v", err)
	}
}

func TestParseWhoami(t *testing.T) {
	body := []byte(`{
		"name": "alice",
		"fullname": "Alice Liddell",
		"orgs": [{"name": "pollen-robotics"}, {"name": "other-org"}],
		"auth": {"accessToken": {"role": "write"}}
	}`)

	id := parseWhoami(body)
	if id.Username != "alice" {
		t.Errorf("Username = %q, want %q", id.Username, "alice")
	}
	if id.Fullname != "Alice Liddell" {
		t.Errorf("Fullname = %q, want %q", id.Fullname, "Alice Liddell")
	}
	if !id.CanWrite {
		t.Error("CanWrite = false for write token, want true")
	}
	if len(id.Orgs) != 2 || id.Orgs[0] != "pollen-robotics" {
		t.Errorf("Orgs = %v, want [pollen-robotics other-org]", id.Orgs)
	}
}

func TestParseWhoamiReadOnlyToken(t *testing.T) {
	body := []byte(`{"name": "bob", "auth": {"accessToken": {"role": "read"}}}`)

	id := parseWhoami(body)
	if id.CanWrite {
		t.Error("CanWrite = true for read token, want false")
	}
}
