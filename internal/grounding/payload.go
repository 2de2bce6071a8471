package grounding

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"cargo-chat/internal/domain"
)

// Intent tags carried in the serialized payload.
const (
	IntentLocation         = "where"
	IntentContents         = "contents"
	IntentAllInfo          = "all-info"
	IntentFields           = "fields"
	IntentIdentifier       = "id"
	IntentList             = "list"
	IntentClarify          = "clarify"
	IntentNotAuthenticated = "not-authenticated"
)

// Clarification reasons.
const (
	ReasonNoShipmentSelected = "no-shipment-selected"
	ReasonNoReferent         = "no-referent"
	ReasonNoSpecificIntent   = "no-specific-intent"
)

// Payload is one grounding variant. Each concrete type maps to one intent tag.
type Payload interface {
	Intent() string
}

// Marshal encodes p as a JSON object whose first key is "intent".
func Marshal(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("grounding: nil payload")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("grounding: marshal %s payload: %w", p.Intent(), err)
	}
	tag, err := json.Marshal(p.Intent())
	if err != nil {
		return nil, fmt.Errorf("grounding: marshal intent tag: %w", err)
	}
	out := append([]byte(`{"intent":`), tag...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
		return out, nil
	}
	return append(out, '}'), nil
}

type RoutePoint struct {
	Planet  string `json:"planet"`
	Station string `json:"station"`
}

func routePoint(p domain.Party) RoutePoint {
	return RoutePoint{Planet: p.Planet, Station: p.Station}
}

type LocationPayload struct {
	Location string     `json:"location"`
	Status   string     `json:"status"`
	StatusSv string     `json:"statusSv"`
	Sender   RoutePoint `json:"sender"`
	Receiver RoutePoint `json:"receiver"`
}

func (LocationPayload) Intent() string { return IntentLocation }

type ContentsPayload struct {
	Category string  `json:"category"`
	WeightKg float64 `json:"weightKg"`
}

func (ContentsPayload) Intent() string { return IntentContents }

type AllInfoPayload struct {
	ID           uuid.UUID    `json:"id"`
	Status       string       `json:"status"`
	StatusSv     string       `json:"statusSv"`
	Sender       domain.Party `json:"sender"`
	Receiver     domain.Party `json:"receiver"`
	Category     string       `json:"category"`
	WeightKg     float64      `json:"weightKg"`
	Priority     string       `json:"priority"`
	HasInsurance bool         `json:"hasInsurance"`
	Description  string       `json:"description"`
}

func (AllInfoPayload) Intent() string { return IntentAllInfo }

type FieldsPayload struct {
	Requested    []string     `json:"requested"`
	Sender       domain.Party `json:"sender"`
	Receiver     domain.Party `json:"receiver"`
	Status       string       `json:"status"`
	StatusSv     string       `json:"statusSv"`
	Category     string       `json:"category"`
	WeightKg     float64      `json:"weightKg"`
	Priority     string       `json:"priority"`
	HasInsurance bool         `json:"hasInsurance"`
	Description  string       `json:"description"`
}

func (FieldsPayload) Intent() string { return IntentFields }

type IdentifierPayload struct {
	ID uuid.UUID `json:"id"`
}

func (IdentifierPayload) Intent() string { return IntentIdentifier }

type ListItem struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	StatusSv    string    `json:"statusSv"`
	FromPlanet  string    `json:"fromPlanet"`
	FromStation string    `json:"fromStation"`
	ToPlanet    string    `json:"toPlanet"`
	ToStation   string    `json:"toStation"`
}

type ListPayload struct {
	Shipments []ListItem `json:"shipments"`
}

func (ListPayload) Intent() string { return IntentList }

type ClarifyPayload struct {
	Reason  string   `json:"reason"`
	Allowed []string `json:"allowed,omitempty"`
}

func (ClarifyPayload) Intent() string { return IntentClarify }

type NotAuthenticatedPayload struct {
	Allowed []string `json:"allowed"`
}

func (NotAuthenticatedPayload) Intent() string { return IntentNotAuthenticated }

// allowedReferents lists the ways a user can point at a shipment.
func allowedReferents() []string {
	return []string{"senaste", "id"}
}
