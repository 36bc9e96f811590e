package logx

import "testing"

func TestDomainFiltering(t *testing.T) {
	SetDebug(true, []string{"graph"})
	defer SetDebug(false, nil)

	if !IsDebugEnabledForDomain("graph") {
		t.Error("graph domain should be enabled")
	}
	if IsDebugEnabledForDomain("intent") {
		t.Error("intent domain should be disabled")
	}
}

func TestAllDomainsWhenUnfiltered(t *testing.T) {
	SetDebug(true, nil)
	defer SetDebug(false, nil)

	for _, domain := range []string{"graph", "intent", "tools", "rag"} {
		if !IsDebugEnabledForDomain(domain) {
			t.Errorf("domain %s should be enabled when no filter is set", domain)
		}
	}
}

func TestDisabledDebugSuppressesAll(t *testing.T) {
	SetDebug(false, nil)

	if IsDebugEnabledForDomain("graph") {
		t.Error("debug disabled globally, no domain should be enabled")
	}
}
