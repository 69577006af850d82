package autoscale

import "testing"

func TestServiceMap_ContainerPrefix(t *testing.T) {
	services := ServiceMap{"ledger-service": "core-ledger"}

	if got := services.ContainerPrefix("ledger-service"); got != "core-ledger" {
		t.Errorf("expected mapped prefix core-ledger, got %q", got)
	}
	if got := services.ContainerPrefix("audit-service"); got != "banking-audit-service" {
		t.Errorf("expected fallback prefix, got %q", got)
	}
}

func TestServiceMap_Alias(t *testing.T) {
	services := ServiceMap{"ledger-service": "core-ledger"}

	if got := services.Alias("core-ledger"); got != "ledger-service" {
		t.Errorf("expected reverse lookup ledger-service, got %q", got)
	}
	if got := services.Alias("banking-audit-service"); got != "audit-service" {
		t.Errorf("expected prefix stripped, got %q", got)
	}
}
