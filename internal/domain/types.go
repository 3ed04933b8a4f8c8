package domain

import "time"

// GeoFields is the coarse location resolved for a visitor's IP.
// All fields are free-text as returned by the lookup provider; the
// normalization pipeline canonicalizes them before hashing.
type GeoFields struct {
	City        string `json:"city,omitempty"`
	Region      string `json:"region,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	CountryName string `json:"countryName,omitempty"`
}

// Empty reports whether no field carries a value.
func (g GeoFields) Empty() bool {
	return g.City == "" && g.Region == "" && g.PostalCode == "" && g.CountryName == ""
}

// Session is a server-side visitor session. It is created once on
// /session/start and never updated in place.
type Session struct {
	ID        string     `json:"id" db:"id"`
	ClientIP  string     `json:"clientIp" db:"client_ip"`
	Location  *GeoFields `json:"location,omitempty"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	ExpiresAt time.Time  `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the session is past its TTL at the given
// instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Identity carries the raw identifying signals attached to a tracked
// event. ExternalID, Email and Phone are three distinct fields; the
// pipeline never substitutes one for another.
type Identity struct {
	ExternalID string `json:"externalId,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// NetworkContext is the request-level context captured alongside an
// event. ClientIP and UserAgent are forwarded to the attribution API
// in cleartext; ClickID and BrowserID are provider cookie values
// passed through unhashed.
type NetworkContext struct {
	ClientIP  string `json:"clientIp,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	ClickID   string `json:"clickId,omitempty"`
	BrowserID string `json:"browserId,omitempty"`
}

// TrackedEvent is one raw conversion event before normalization.
type TrackedEvent struct {
	Name       string         `json:"eventName"`
	Time       time.Time      `json:"-"`
	SourceURL  string         `json:"sourceUrl,omitempty"`
	Identity   Identity       `json:"identity"`
	Geo        GeoFields      `json:"geo"`
	Network    NetworkContext `json:"network"`
	CustomData map[string]any `json:"customData,omitempty"`
}

// DeliveryResult is the outcome of relaying one event to the
// attribution API. A failed delivery is data, not a transport error:
// handlers report it with delivered=false rather than a 5xx.
type DeliveryResult struct {
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}
