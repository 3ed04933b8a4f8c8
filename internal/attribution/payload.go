// Package attribution builds and delivers conversion events to the
// external ad-attribution API. Identity and geo fields are normalized
// and hashed before they leave the process; only the client IP and
// user agent travel in cleartext, as the receiving API requires.
package attribution

import (
	"time"

	"github.com/perfilmente/funnel-api/internal/domain"
	"github.com/perfilmente/funnel-api/internal/normalize"
)

// ActionSource is the fixed action-source tag for every event this
// funnel emits.
const ActionSource = "website"

// UserData is the identity block of one event. Hashed fields are
// emitted as single-element arrays per the receiving API's format and
// omitted entirely when the source value normalized to empty.
type UserData struct {
	ClientIPAddress string   `json:"client_ip_address,omitempty"`
	ClientUserAgent string   `json:"client_user_agent,omitempty"`
	ExternalID      []string `json:"external_id,omitempty"`
	Email           []string `json:"em,omitempty"`
	Phone           []string `json:"ph,omitempty"`
	City            []string `json:"ct,omitempty"`
	State           []string `json:"st,omitempty"`
	PostalCode      []string `json:"zp,omitempty"`
	Country         []string `json:"country,omitempty"`
	ClickID         string   `json:"fbc,omitempty"`
	BrowserID       string   `json:"fbp,omitempty"`
}

// Event is one normalized outbound record.
type Event struct {
	EventName      string         `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	ActionSource   string         `json:"action_source"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       UserData       `json:"user_data"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
}

// payload is the request envelope the API expects.
type payload struct {
	Data []Event `json:"data"`
}

// hashed wraps a normalized value for the wire: nil when empty so the
// field disappears from the JSON, never an empty-string hash.
func hashed(normalized string) []string {
	digest := normalize.HashField(normalized)
	if digest == "" {
		return nil
	}
	return []string{digest}
}

// BuildEvent converts a raw tracked event into the outbound wire
// record. Per-field normalization failures never abort the event: an
// unmappable field is simply omitted, since partial data still
// attributes. The only build failure is a missing event name.
func BuildEvent(ev domain.TrackedEvent) (*Event, error) {
	if ev.Name == "" {
		return nil, domain.ErrInputRejected("event name is required").WithParam("eventName")
	}

	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return &Event{
		EventName:      ev.Name,
		EventTime:      ts.Unix(),
		ActionSource:   ActionSource,
		EventSourceURL: ev.SourceURL,
		UserData: UserData{
			ClientIPAddress: ev.Network.ClientIP,
			ClientUserAgent: ev.Network.UserAgent,
			ExternalID:      hashed(normalize.ExternalID(ev.Identity.ExternalID)),
			Email:           hashed(normalize.Email(ev.Identity.Email)),
			Phone:           hashed(normalize.Phone(ev.Identity.Phone)),
			City:            hashed(normalize.City(ev.Geo.City)),
			State:           hashed(normalize.State(ev.Geo.Region)),
			PostalCode:      hashed(normalize.Postal(ev.Geo.PostalCode)),
			Country:         hashed(normalize.Country(ev.Geo.CountryName)),
			ClickID:         ev.Network.ClickID,
			BrowserID:       ev.Network.BrowserID,
		},
		CustomData: ev.CustomData,
	}, nil
}
