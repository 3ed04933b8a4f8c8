// Package api implements the HTTP surface consumed by the quiz
// front-end: session start, event tracking, purchase relay, and the
// funnel step contract.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/perfilmente/funnel-api/internal/attribution"
	"github.com/perfilmente/funnel-api/internal/domain"
	"github.com/perfilmente/funnel-api/internal/funnel"
	"github.com/perfilmente/funnel-api/internal/server"
	"github.com/perfilmente/funnel-api/internal/storage"
)

// GeoResolver resolves coarse location for an IP.
type GeoResolver interface {
	Lookup(ctx context.Context, ip string) (domain.GeoFields, error)
}

// EventDeliverer relays a raw event to the attribution API.
type EventDeliverer interface {
	Deliver(ctx context.Context, raw domain.TrackedEvent) (domain.DeliveryResult, error)
	Enabled() bool
}

// Handlers holds the dependencies of the HTTP surface. Everything is
// injected; there is no ambient global state.
type Handlers struct {
	store       storage.SessionStore
	geo         GeoResolver
	attribution EventDeliverer
	steps       []funnel.Step
	sessionTTL  time.Duration
}

// New creates the handler set.
func New(store storage.SessionStore, geo GeoResolver, deliverer EventDeliverer, steps []funnel.Step, sessionTTL time.Duration) *Handlers {
	return &Handlers{
		store:       store,
		geo:         geo,
		attribution: deliverer,
		steps:       steps,
		sessionTTL:  sessionTTL,
	}
}

// Routes mounts the API routes.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/session/start", h.StartSession)
	r.Post("/events/track", h.TrackEvent)
	r.Post("/events/purchase/{sessionID}", h.TrackPurchase)
	r.Get("/funnel/steps", h.FunnelSteps)
	r.Get("/healthz", h.Health)
}

type startSessionResponse struct {
	SessionID string            `json:"sessionId"`
	Location  *domain.GeoFields `json:"location"`
}

// StartSession allocates a new session. Every call creates a fresh id;
// there is no lookup or merge by IP. A failed geolocation lookup never
// fails the request: location is simply null.
func (h *Handlers) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := clientIP(r)

	var location *domain.GeoFields
	if geo, err := h.geo.Lookup(ctx, ip); err != nil {
		server.AddLogField(ctx, "geo_lookup", err.Error())
	} else if !geo.Empty() {
		location = &geo
	}

	now := time.Now()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		ClientIP:  ip,
		Location:  location,
		CreatedAt: now,
		ExpiresAt: now.Add(h.sessionTTL),
	}

	if err := h.store.Put(ctx, sess); err != nil {
		server.AddError(ctx, err)
		writeError(w, domain.ErrServer("failed to store session"))
		return
	}

	server.AddLogField(ctx, "session_id", sess.ID)
	writeJSON(w, http.StatusOK, startSessionResponse{SessionID: sess.ID, Location: location})
}

type trackEventRequest struct {
	EventName  string         `json:"eventName"`
	SessionID  string         `json:"sessionId,omitempty"`
	ExternalID string         `json:"externalId,omitempty"`
	Email      string         `json:"email,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	ClickID    string         `json:"clickId,omitempty"`
	BrowserID  string         `json:"browserId,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	SourceURL  string         `json:"sourceUrl,omitempty"`
	CustomData map[string]any `json:"customData,omitempty"`
}

// TrackEvent relays one milestone event to the attribution API and
// reports the delivery outcome. Delivery failures come back as
// delivered=false with the upstream detail; they are never a 5xx,
// since the quiz UI treats tracking as a best-effort side channel.
func (h *Handlers) TrackEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req trackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInputRejected("invalid request body"))
		return
	}
	if req.EventName == "" {
		writeError(w, domain.ErrInputRejected("event name is required").WithParam("eventName"))
		return
	}
	server.AddLogField(ctx, "event_name", req.EventName)

	ip := clientIP(r)
	geo := h.resolveGeo(ctx, req.SessionID, ip)

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	raw := domain.TrackedEvent{
		Name:      req.EventName,
		Time:      time.Now(),
		SourceURL: req.SourceURL,
		Identity: domain.Identity{
			ExternalID: req.ExternalID,
			Email:      req.Email,
			Phone:      req.Phone,
		},
		Geo: geo,
		Network: domain.NetworkContext{
			ClientIP:  ip,
			UserAgent: userAgent,
			ClickID:   req.ClickID,
			BrowserID: req.BrowserID,
		},
		CustomData: req.CustomData,
	}

	result, err := h.attribution.Deliver(ctx, raw)
	if err != nil {
		writeError(w, err)
		return
	}
	if !result.Delivered {
		server.AddLogField(ctx, "delivery_error", result.Error)
	}

	writeJSON(w, http.StatusOK, result)
}

type purchaseRequest struct {
	Email    string  `json:"email"`
	Name     string  `json:"name,omitempty"`
	Phone    string  `json:"phone,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Currency string  `json:"currency,omitempty"`
}

type purchaseResponse struct {
	SessionID string                `json:"sessionId"`
	Identity  attribution.UserData  `json:"identity"`
	Result    domain.DeliveryResult `json:"result"`
}

// TrackPurchase relays the conversion event for a completed checkout.
// The session id rides along as the external id so the attribution API
// can correlate the purchase with the quiz events; email stays its own
// field and is never folded into the external id.
func (h *Handlers) TrackPurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInputRejected("invalid request body"))
		return
	}
	if req.Email == "" {
		writeError(w, domain.ErrInputRejected("email is required for purchase events").WithParam("email"))
		return
	}
	server.AddLogField(ctx, "session_id", sessionID)

	ip := clientIP(r)
	geo := h.resolveGeo(ctx, sessionID, ip)

	customData := map[string]any{}
	if req.Value > 0 {
		customData["value"] = req.Value
	}
	if req.Currency != "" {
		customData["currency"] = req.Currency
	}
	if req.Name != "" {
		customData["name"] = req.Name
	}

	raw := domain.TrackedEvent{
		Name: "Purchase",
		Time: time.Now(),
		Identity: domain.Identity{
			ExternalID: sessionID,
			Email:      req.Email,
			Phone:      req.Phone,
		},
		Geo: geo,
		Network: domain.NetworkContext{
			ClientIP:  ip,
			UserAgent: r.UserAgent(),
		},
		CustomData: customData,
	}

	ev, err := attribution.BuildEvent(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.attribution.Deliver(ctx, raw)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseResponse{
		SessionID: sessionID,
		Identity:  ev.UserData,
		Result:    result,
	})
}

// FunnelSteps serves the fixed step contract every page variant
// renders from.
func (h *Handlers) FunnelSteps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"steps": h.steps})
}

// Health reports liveness and whether attribution delivery is enabled.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"delivery": h.attribution.Enabled(),
	})
}

// resolveGeo prefers the location captured at session start and falls
// back to a live lookup on the request IP. Both paths are best-effort;
// an event with no geo fields still delivers.
func (h *Handlers) resolveGeo(ctx context.Context, sessionID, ip string) domain.GeoFields {
	if sessionID != "" {
		if sess, err := h.store.Get(ctx, sessionID); err == nil && sess.Location != nil {
			return *sess.Location
		}
	}

	geo, err := h.geo.Lookup(ctx, ip)
	if err != nil {
		server.AddLogField(ctx, "geo_lookup", err.Error())
		return domain.GeoFields{}
	}
	return geo
}

// clientIP extracts the originating client address: the first hop of
// X-Forwarded-For when present, otherwise the connection's remote
// address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a canonical error to its HTTP shape. Unexpected
// errors fall back to a generic 500 without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	var fe *domain.FunnelError
	if !errors.As(err, &fe) {
		fe = domain.ErrServer("internal error")
	}
	writeJSON(w, fe.HTTPStatusCode(), map[string]any{"error": fe})
}
