package attribution

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/perfilmente/funnel-api/internal/domain"
	"github.com/perfilmente/funnel-api/internal/testutil"
)

func testEvent(t *testing.T) *Event {
	t.Helper()
	ev, err := BuildEvent(domain.TrackedEvent{
		Name:     "StartQuiz",
		Identity: domain.Identity{ExternalID: "session-123"},
		Network:  domain.NetworkContext{ClientIP: "203.0.113.9", UserAgent: "UA/1.0"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestSendDeliversPayload(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/act_123/events" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("access_token") != "tok" {
			t.Error("missing access token")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.Write([]byte(`{"events_received":1}`))
	}))
	defer srv.Close()

	c := NewClient("act_123", "tok", WithBaseURL(srv.URL))
	if err := c.Send(context.Background(), testEvent(t)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(got.Data) != 1 || got.Data[0].EventName != "StartQuiz" {
		t.Errorf("delivered payload = %+v", got)
	}
}

func TestSendDisabledWithoutCredentials(t *testing.T) {
	for _, c := range []*Client{
		NewClient("", "tok"),
		NewClient("act_123", ""),
		NewClient("", ""),
	} {
		if c.Enabled() {
			t.Error("client without credentials must be disabled")
		}
		err := c.Send(context.Background(), testEvent(t))
		var fe *domain.FunnelError
		if !errors.As(err, &fe) || fe.Type != domain.ErrorTypeConfigurationMissing {
			t.Errorf("Send() err = %v, want configuration_missing", err)
		}
	}
}

func TestSendRetriesOnceOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"events_received":1}`))
	}))
	defer srv.Close()

	c := NewClient("act_123", "tok", WithBaseURL(srv.URL))
	if err := c.Send(context.Background(), testEvent(t)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestSendSurfacesUpstreamRejection(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException"}}`))
	}))
	defer srv.Close()

	c := NewClient("act_123", "tok", WithBaseURL(srv.URL))
	err := c.Send(context.Background(), testEvent(t))

	var fe *domain.FunnelError
	if !errors.As(err, &fe) || fe.Type != domain.ErrorTypeUpstreamDelivery {
		t.Fatalf("err = %v, want upstream_delivery_failed", err)
	}
	if !strings.Contains(fe.Message, "Invalid parameter") {
		t.Errorf("upstream detail must be attached, got %q", fe.Message)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, 4xx must not be retried", calls.Load())
	}
}

func TestDeliverSplitsBuildAndDeliveryFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"nope"}}`))
	}))
	defer srv.Close()

	c := NewClient("act_123", "tok", WithBaseURL(srv.URL))

	// Build failure: an error, mapped to 4xx by handlers.
	if _, err := c.Deliver(context.Background(), domain.TrackedEvent{}); err == nil {
		t.Fatal("expected build error for nameless event")
	}

	// Delivery failure: not an error, reported as delivered=false.
	res, err := c.Deliver(context.Background(), domain.TrackedEvent{Name: "StartQuiz"})
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if res.Delivered || res.Error == "" {
		t.Errorf("result = %+v, want delivered=false with detail", res)
	}
}

func TestSendReplaysRecordedExchange(t *testing.T) {
	r, cleanup := testutil.NewVCRRecorder(t, "attribution_send")
	defer cleanup()

	c := NewClient("act_test", "test-token", WithHTTPClient(testutil.VCRHTTPClient(r)))
	if err := c.Send(context.Background(), testEvent(t)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}
