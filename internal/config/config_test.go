package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ToolCallTimeout != 30*time.Second {
		t.Errorf("ToolCallTimeout = %v, want 30s", cfg.ToolCallTimeout)
	}
	if cfg.TurnDeadline != 60*time.Second {
		t.Errorf("TurnDeadline = %v, want 60s", cfg.TurnDeadline)
	}
	if cfg.PlanDeadline != 120*time.Second {
		t.Errorf("PlanDeadline = %v, want 120s", cfg.PlanDeadline)
	}
	if cfg.SyncRecentUserWindow != 2*time.Hour {
		t.Errorf("SyncRecentUserWindow = %v, want 2h", cfg.SyncRecentUserWindow)
	}
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATA_TOOL_ENDPOINT", "http://data:8081")
	t.Setenv("PROMPT_TOOL_ENDPOINT", "http://prompt:8082")
	t.Setenv("TOOL_CALL_TIMEOUT_SECONDS", "15")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataToolEndpoint != "http://data:8081" {
		t.Errorf("DataToolEndpoint = %q", cfg.DataToolEndpoint)
	}
	if cfg.PromptToolEndpoint != "http://prompt:8082" {
		t.Errorf("PromptToolEndpoint = %q", cfg.PromptToolEndpoint)
	}
	if cfg.ToolCallTimeout != 15*time.Second {
		t.Errorf("ToolCallTimeout = %v, want 15s", cfg.ToolCallTimeout)
	}
}
