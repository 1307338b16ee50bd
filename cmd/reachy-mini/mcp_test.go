package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"
)

func TestInstallMCPEntryCreatesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cursor", "mcp.json")

	if err := installMCPEntry(path); err != nil {
		t.Fatalf("installMCPEntry error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}

	doc := string(data)
	if got := gjson.Get(doc, "mcpServers.reachy-mini.command").String(); got != "reachy-mini" {
		t.Fatalf("command = %q, want reachy-mini", got)
	}
	args := gjson.Get(doc, "mcpServers.reachy-mini.args").Array()
	if len(args) != 2 || args[0].String() != "mcp" || args[1].String() != "serve" {
		t.Fatalf("unexpected args: %s", gjson.Get(doc, "mcpServers.reachy-mini.args").Raw)
	}
}

func TestInstallMCPEntryPreservesOtherServers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	existing := `{"mcpServers":{"other":{"command":"other-tool","args":["serve"]}},"theme":"dark"}`
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	if err := installMCPEntry(path); err != nil {
		t.Fatalf("installMCPEntry error = %v", err)
	}

	data, _ := os.ReadFile(path)
	doc := string(data)

	if got := gjson.Get(doc, "mcpServers.other.command").String(); got != "other-tool" {
		t.Fatalf("existing server entry was lost, got %q", got)
	}
	if got := gjson.Get(doc, "theme").String(); got != "dark" {
		t.Fatalf("unrelated config key was lost, got %q", got)
	}
	if !gjson.Get(doc, "mcpServers.reachy-mini").Exists() {
		t.Fatal("reachy-mini entry was not added")
	}
}

func TestInstallMCPEntryDoesNotOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	existing := `{"mcpServers":{"reachy-mini":{"command":"/custom/bin/reachy-mini","args":["mcp","serve"]}}}`
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	prev := mcpInstallForce
	mcpInstallForce = false
	defer func() { mcpInstallForce = prev }()

	if err := installMCPEntry(path); err != nil {
		t.Fatalf("installMCPEntry error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if got := gjson.GetBytes(data, "mcpServers.reachy-mini.command").String(); got != "/custom/bin/reachy-mini" {
		t.Fatalf("existing entry was overwritten without --force, got %q", got)
	}

	mcpInstallForce = true
	if err := installMCPEntry(path); err != nil {
		t.Fatalf("installMCPEntry error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if got := gjson.GetBytes(data, "mcpServers.reachy-mini.command").String(); got != "reachy-mini" {
		t.Fatalf("expected --force to overwrite, got %q", got)
	}
}

func TestInstallMCPEntryRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := installMCPEntry(path); err == nil {
		t.Fatal("expected an error for a corrupt config file")
	}

	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Fatal("corrupt config file was modified")
	}
}
