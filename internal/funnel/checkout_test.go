package funnel

import (
	"net/url"
	"testing"
)

func TestCheckoutURLAppendsParams(t *testing.T) {
	got := CheckoutURL("https://pay.example/checkout/abc", map[string]string{
		"utm_source": "quiz",
		"sid":        "sess-42",
		"empty":      "",
	})

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("result does not parse: %v", err)
	}
	q := u.Query()
	if q.Get("utm_source") != "quiz" || q.Get("sid") != "sess-42" {
		t.Errorf("query = %q", u.RawQuery)
	}
	if q.Has("empty") {
		t.Error("empty params must be dropped")
	}
}

func TestCheckoutURLFallsBackOnBadBase(t *testing.T) {
	bad := "https://pay.example/%zz"
	if got := CheckoutURL(bad, map[string]string{"sid": "x"}); got != bad {
		t.Errorf("got %q, want the base returned unchanged", got)
	}
}

func TestCheckoutURLPreservesExistingQuery(t *testing.T) {
	got := CheckoutURL("https://pay.example/checkout?plan=pro", map[string]string{"sid": "s"})
	u, _ := url.Parse(got)
	if u.Query().Get("plan") != "pro" || u.Query().Get("sid") != "s" {
		t.Errorf("got %q", got)
	}
}
