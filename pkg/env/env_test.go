package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("FOODCART_TEST_VALUE", "  console ")
	if got := Get("FOODCART_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}

	t.Setenv("FOODCART_TEST_VALUE", "   ")
	if got := Get("FOODCART_TEST_VALUE", "json"); got != "json" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
}

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("FOODCART_TEST_A", "")
	t.Setenv("FOODCART_TEST_B", "console")
	t.Setenv("FOODCART_TEST_C", "json")

	if got := First("fallback", "FOODCART_TEST_A", "FOODCART_TEST_B", "FOODCART_TEST_C"); got != "console" {
		t.Fatalf("expected first non-blank value, got %q", got)
	}
	if got := First("fallback"); got != "fallback" {
		t.Fatalf("expected fallback without keys, got %q", got)
	}
}
