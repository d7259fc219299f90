package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := Default("admin")
	if cfg.Operator.ID != "admin" {
		t.Fatalf("operator id %q", cfg.Operator.ID)
	}
	if cfg.Payment.WindowMinutes != 15 {
		t.Fatalf("window minutes %d", cfg.Payment.WindowMinutes)
	}
	if len(cfg.Catalog.WorkTypes) == 0 || len(cfg.Catalog.RefusalReasons) == 0 {
		t.Fatalf("catalog not seeded: %+v", cfg.Catalog)
	}
}

func TestGenerateDefaultContainsOperator(t *testing.T) {
	out := GenerateDefault("op-42")
	if !strings.Contains(out, "id: op-42") {
		t.Fatalf("operator missing from template:\n%s", out)
	}
}

func TestValidateRejectsBadBackend(t *testing.T) {
	_, err := FromYAML([]byte("operator:\n  id: admin\norders:\n  backend: redis\n"))
	if err == nil {
		t.Fatal("expected backend error")
	}
}

func TestValidateRequiresOperator(t *testing.T) {
	_, err := FromYAML([]byte("orders:\n  backend: file\n"))
	if err == nil {
		t.Fatal("expected operator error")
	}
}

func TestValidateWebhookNeedsURL(t *testing.T) {
	_, err := FromYAML([]byte("operator:\n  id: admin\nwebhooks:\n  - id: wh1\n"))
	if err == nil {
		t.Fatal("expected webhook url error")
	}
}

func TestValidateNegativeWindowRejected(t *testing.T) {
	_, err := FromYAML([]byte("operator:\n  id: admin\npayment:\n  window_minutes: -5\n"))
	if err == nil {
		t.Fatal("expected window error")
	}
}
