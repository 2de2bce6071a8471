// Package grounding picks the shipment data a reply may be based on.
package grounding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"cargo-chat/internal/domain"
	"cargo-chat/internal/intent"
)

const (
	singlePageSize = 1
	listPageSize   = 50
)

var ErrMissingUserID = errors.New("grounding: authenticated identity without user id")

// ShipmentReader is the read side of the shipment store. GetByID returns
// (nil, nil) when no shipment has the id.
type ShipmentReader interface {
	ListByCustomer(ctx context.Context, customerID string, page domain.PageRequest) (domain.Page[domain.Shipment], error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)
}

// Grounding is the outcome of selection. A zero Grounding means the reply is
// produced from the system prompt and history alone.
type Grounding struct {
	Instruction string
	Payload     Payload
	// Shipment is the resolved target, if any. It is never owned by anyone
	// other than the caller.
	Shipment *domain.Shipment
}

func (g Grounding) HasPayload() bool { return g.Payload != nil }

type Selector struct {
	store ShipmentReader
}

func NewSelector(store ShipmentReader) (*Selector, error) {
	if store == nil {
		return nil, errors.New("grounding: shipment reader must not be nil")
	}
	return &Selector{store: store}, nil
}

// Select maps a resolved intent to at most one payload. Anonymous callers never
// reach the store.
func (s *Selector) Select(ctx context.Context, who domain.Identity, r intent.Result) (Grounding, error) {
	if !r.IsShipmentRelated() {
		return Grounding{}, nil
	}
	if !who.Authenticated {
		return Grounding{
			Instruction: notAuthenticatedInstruction,
			Payload:     NotAuthenticatedPayload{Allowed: allowedReferents()},
		}, nil
	}
	userID := strings.TrimSpace(who.UserID)
	if userID == "" {
		return Grounding{}, ErrMissingUserID
	}

	size := singlePageSize
	if r.WantsList {
		size = listPageSize
	}
	page, err := s.store.ListByCustomer(ctx, userID, domain.PageRequest{Page: 1, PageSize: size})
	if err != nil {
		return Grounding{}, fmt.Errorf("grounding: list shipments: %w", err)
	}
	target, err := s.target(ctx, userID, r, page.Items)
	if err != nil {
		return Grounding{}, err
	}

	g := choose(r, target, page.Items)
	g.Shipment = target
	return g, nil
}

// target resolves the referent to a shipment the caller owns. An id that is
// unknown or owned by someone else falls through to "senaste", then to nothing.
func (s *Selector) target(ctx context.Context, userID string, r intent.Result, newest []domain.Shipment) (*domain.Shipment, error) {
	if r.ShipmentID.Valid {
		sh, err := s.store.GetByID(ctx, r.ShipmentID.UUID)
		if err != nil {
			return nil, fmt.Errorf("grounding: get shipment: %w", err)
		}
		if sh != nil && sh.CustomerID == userID {
			return sh, nil
		}
	}
	if r.WantsLatest && len(newest) > 0 {
		latest := newest[0]
		return &latest, nil
	}
	return nil, nil
}

func choose(r intent.Result, target *domain.Shipment, items []domain.Shipment) Grounding {
	switch {
	case r.HasExplicitReferent() && !r.HasSpecificIntent():
		return noSpecificIntent(r)
	case r.WantsList:
		return list(items)
	case r.HasSpecificIntent() && !r.HasExplicitReferent():
		return Grounding{
			Instruction: noReferentInstruction,
			Payload:     ClarifyPayload{Reason: ReasonNoReferent, Allowed: allowedReferents()},
		}
	}

	a := answerFor(r)
	if target == nil {
		return Grounding{
			Instruction: a.unselectedInstruction(),
			Payload:     ClarifyPayload{Reason: ReasonNoShipmentSelected, Allowed: allowedReferents()},
		}
	}
	return a.ground(*target, r.Fields)
}

type answer uint8

const (
	answerLocation answer = iota
	answerContents
	answerAllInfo
	answerFields
	answerIdentifier
)

// contentsFields are already part of a contents answer.
var contentsFields = intent.FieldsOf(intent.Category, intent.Weight)

// answerFor ranks the single-shipment categories; a more specific request wins.
func answerFor(r intent.Result) answer {
	switch {
	case r.Identifier:
		return answerIdentifier
	case !r.Fields.Empty() && !(r.Contents && r.Fields.SubsetOf(contentsFields)):
		return answerFields
	case r.FullDetail:
		return answerAllInfo
	case r.Contents:
		return answerContents
	default:
		return answerLocation
	}
}

func (a answer) unselectedInstruction() string {
	switch a {
	case answerContents:
		return "Förklara kort på svenska att du behöver veta vilken frakt det gäller, och be användaren skriva 'senaste' eller ange ett ID."
	case answerFields:
		return "Förklara kort på svenska att du behöver veta vilken frakt det gäller genom att ange ett ID eller skriva 'senaste'."
	default:
		return clarifyInstruction
	}
}

func (a answer) ground(s domain.Shipment, fields intent.FieldSet) Grounding {
	switch a {
	case answerIdentifier:
		return Grounding{
			Instruction: "Svara med fraktens ID på svenska utifrån DATA.",
			Payload:     IdentifierPayload{ID: s.ID},
		}
	case answerFields:
		return Grounding{
			Instruction: "Svara det som efterfrågas på svenska, utifrån DATA.",
			Payload: FieldsPayload{
				Requested:    fields.Names(),
				Sender:       s.Sender,
				Receiver:     s.Receiver,
				Status:       string(s.Status),
				StatusSv:     StatusSv(s.Status),
				Category:     s.Category,
				WeightKg:     s.Weight,
				Priority:     s.Priority,
				HasInsurance: s.HasInsurance,
				Description:  s.Description,
			},
		}
	case answerAllInfo:
		return Grounding{
			Instruction: "Ge en sammanställning på svenska av DATA (id, status, ursprung/destination, avsändare/mottagare, innehåll, vikt, prioritet, försäkring, beskrivning). Inga påhittade fält.",
			Payload: AllInfoPayload{
				ID:           s.ID,
				Status:       string(s.Status),
				StatusSv:     StatusSv(s.Status),
				Sender:       s.Sender,
				Receiver:     s.Receiver,
				Category:     s.Category,
				WeightKg:     s.Weight,
				Priority:     s.Priority,
				HasInsurance: s.HasInsurance,
				Description:  s.Description,
			},
		}
	case answerContents:
		return Grounding{
			Instruction: "Svara på svenska utifrån DATA (innehåll och vikt).",
			Payload:     ContentsPayload{Category: s.Category, WeightKg: s.Weight},
		}
	default:
		return Grounding{
			Instruction: "Svara kort på svenska. Börja med var frakten är enligt DATA.location, och nämn sedan status enligt DATA.statusSv. Hitta inte på platser.",
			Payload: LocationPayload{
				Location: LocationPhrase(s),
				Status:   string(s.Status),
				StatusSv: StatusSv(s.Status),
				Sender:   routePoint(s.Sender),
				Receiver: routePoint(s.Receiver),
			},
		}
	}
}

func noSpecificIntent(r intent.Result) Grounding {
	which := "den senaste frakten"
	if !r.WantsLatest {
		which = "frakten med ID " + r.ShipmentID.UUID.String()
	}
	return Grounding{
		Instruction: fmt.Sprintf("Fråga vad användaren vill veta om %s (t.ex. ID, status eller innehåll). Svara på svenska och vänligt.", which),
		Payload:     ClarifyPayload{Reason: ReasonNoSpecificIntent},
	}
}

func list(items []domain.Shipment) Grounding {
	out := make([]ListItem, 0, len(items))
	for _, s := range items {
		out = append(out, ListItem{
			ID:          s.ID,
			Status:      string(s.Status),
			StatusSv:    StatusSv(s.Status),
			FromPlanet:  s.Sender.Planet,
			FromStation: s.Sender.Station,
			ToPlanet:    s.Receiver.Planet,
			ToStation:   s.Receiver.Station,
		})
	}
	instruction := "Ge en kort svensk översikt av listan i DATA. Ta med ID, status och rutt (från→till)."
	if len(out) == 0 {
		instruction = "Svara kort på svenska att det inte finns några frakter att visa."
	}
	return Grounding{Instruction: instruction, Payload: ListPayload{Shipments: out}}
}

const (
	notAuthenticatedInstruction = "Informera användaren kort och vänligt på svenska att de måste logga in för att se fraktuppgifter. Tipsa om att ange ett ID efter inloggning eller skriva 'senaste'."
	noReferentInstruction       = "Förklara kort att du kan visa 'senaste' frakten eller en specifik via ID. Svara på svenska och vänligt."
	clarifyInstruction          = "Be användaren specificera vilken frakt. Skriv på svenska."
)
