package grounding

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"cargo-chat/internal/domain"
	"cargo-chat/internal/intent"
)

var (
	ownedID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	foreignID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	newestID  = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

type fakeStore struct {
	shipments []domain.Shipment

	listCalls int
	lastPage  domain.PageRequest
	getCalls  int
	listErr   error
	getErr    error
}

func (f *fakeStore) ListByCustomer(_ context.Context, customerID string, page domain.PageRequest) (domain.Page[domain.Shipment], error) {
	f.listCalls++
	f.lastPage = page
	if f.listErr != nil {
		return domain.Page[domain.Shipment]{}, f.listErr
	}
	var owned []domain.Shipment
	for _, s := range f.shipments {
		if s.CustomerID == customerID {
			owned = append(owned, s)
		}
	}
	total := len(owned)
	if len(owned) > page.PageSize {
		owned = owned[:page.PageSize]
	}
	return domain.Page[domain.Shipment]{Items: owned, Page: page.Page, PageSize: page.PageSize, TotalCount: total}, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Shipment, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, s := range f.shipments {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

// seeded returns shipments newest first, as the stores do.
func seeded() *fakeStore {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeStore{shipments: []domain.Shipment{
		{
			ID:         newestID,
			CustomerID: "cust-1",
			Status:     domain.StatusDelivered,
			Sender:     domain.Party{Name: "Ada", Planet: "Mars", Station: "Olympus"},
			Receiver:   domain.Party{Name: "Bo", Planet: "Jupiter", Station: "Io-2"},
			Category:   "Kryddor",
			Weight:     4.5,
			CreatedAt:  now,
		},
		{
			ID:           ownedID,
			CustomerID:   "cust-1",
			Status:       domain.StatusInTransit,
			Sender:       domain.Party{Name: "Ada", Email: "ada@mars.test", Planet: "Mars", Station: "Olympus"},
			Receiver:     domain.Party{Name: "Cy", Planet: "Venus", Station: "Cloud-9"},
			Category:     "Reservdelar",
			Weight:       120,
			Priority:     "High",
			HasInsurance: true,
			Description:  "Motordelar",
			CreatedAt:    now.Add(-time.Hour),
		},
		{
			ID:         foreignID,
			CustomerID: "cust-2",
			Status:     domain.StatusApproved,
			Sender:     domain.Party{Planet: "Saturn"},
			Receiver:   domain.Party{Planet: "Pluto"},
			Category:   "Hemligt",
			CreatedAt:  now.Add(-2 * time.Hour),
		},
	}}
}

func customer() domain.Identity {
	return domain.Identity{Authenticated: true, Role: domain.RoleCustomer, UserID: "cust-1"}
}

func resolve(texts ...string) intent.Result {
	history := make([]domain.ChatMessage, 0, len(texts))
	for _, t := range texts {
		history = append(history, domain.ChatMessage{Role: "user", Content: t})
	}
	return intent.Resolve(history)
}

func selectFor(t *testing.T, store *fakeStore, who domain.Identity, r intent.Result) Grounding {
	t.Helper()
	s, err := NewSelector(store)
	require.NoError(t, err)
	g, err := s.Select(context.Background(), who, r)
	require.NoError(t, err)
	return g
}

func TestNewSelector_RequiresStore(t *testing.T) {
	_, err := NewSelector(nil)
	require.Error(t, err)
}

func TestSelect_OwnedIDContents(t *testing.T) {
	store := seeded()
	g := selectFor(t, store, customer(), resolve("vad innehåller frakten med id "+ownedID.String()+"?"))

	require.Equal(t, ContentsPayload{Category: "Reservdelar", WeightKg: 120}, g.Payload)
	require.Equal(t, ownedID, g.Shipment.ID)
	require.Equal(t, 1, store.lastPage.PageSize)

	raw, err := Marshal(g.Payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"intent":"contents","category":"Reservdelar","weightKg":120}`, string(raw))
}

func TestSelect_UnauthenticatedShipmentQuestion(t *testing.T) {
	store := seeded()
	g := selectFor(t, store, domain.Anonymous(), resolve("var är min frakt?"))

	require.Equal(t, NotAuthenticatedPayload{Allowed: []string{"senaste", "id"}}, g.Payload)
	require.Contains(t, g.Instruction, "logga in")
	require.Nil(t, g.Shipment)
	require.Zero(t, store.listCalls)
	require.Zero(t, store.getCalls)
}

func TestSelect_UnrelatedQuestionHasNoPayload(t *testing.T) {
	store := seeded()
	for _, who := range []domain.Identity{domain.Anonymous(), customer()} {
		g := selectFor(t, store, who, resolve("Vad betyder risknivå 5?"))
		require.False(t, g.HasPayload())
		require.Empty(t, g.Instruction)
	}
	require.Zero(t, store.listCalls)
}

func TestSelect_ForeignIDIsNeverSelected(t *testing.T) {
	store := seeded()
	g := selectFor(t, store, customer(), resolve("var är frakten "+foreignID.String()+"?"))

	require.Nil(t, g.Shipment)
	require.Equal(t, ClarifyPayload{Reason: ReasonNoShipmentSelected, Allowed: []string{"senaste", "id"}}, g.Payload)
	require.Equal(t, 1, store.getCalls)
}

func TestSelect_LatestWhere(t *testing.T) {
	g := selectFor(t, seeded(), customer(), resolve("Var är min senaste frakt?"))

	require.Equal(t, LocationPayload{
		Location: "Levererad till Jupiter",
		Status:   "Delivered",
		StatusSv: "Levererad",
		Sender:   RoutePoint{Planet: "Mars", Station: "Olympus"},
		Receiver: RoutePoint{Planet: "Jupiter", Station: "Io-2"},
	}, g.Payload)
	require.Equal(t, newestID, g.Shipment.ID)
}

func TestSelect_WordContainingIDIsStillALocationQuestion(t *testing.T) {
	g := selectFor(t, seeded(), customer(), resolve("Har du någon idé var min senaste frakt är?"))

	p, ok := g.Payload.(LocationPayload)
	require.True(t, ok, "got %T", g.Payload)
	require.Equal(t, "Levererad till Jupiter", p.Location)
	require.Equal(t, newestID, g.Shipment.ID)
}

func TestSelect_ForeignIDFallsBackToLatest(t *testing.T) {
	g := selectFor(t, seeded(), customer(), resolve("Var är "+foreignID.String()+" eller min senaste frakt?"))
	require.Equal(t, newestID, g.Shipment.ID)
}

func TestSelect_LatestAloneAsksWhatToKnow(t *testing.T) {
	g := selectFor(t, seeded(), customer(), resolve("senaste"))

	require.Equal(t, ClarifyPayload{Reason: ReasonNoSpecificIntent}, g.Payload)
	require.Contains(t, g.Instruction, "den senaste frakten")
	require.Equal(t, newestID, g.Shipment.ID)
}

func TestSelect_IDAloneNamesTheID(t *testing.T) {
	g := selectFor(t, seeded(), customer(), resolve(ownedID.String()))
	require.Contains(t, g.Instruction, "frakten med ID "+ownedID.String())
}

func TestSelect_SpecificIntentWithoutReferent(t *testing.T) {
	g := selectFor(t, seeded(), customer(), resolve("var är min frakt?"))

	require.Equal(t, ClarifyPayload{Reason: ReasonNoReferent, Allowed: []string{"senaste", "id"}}, g.Payload)
	require.Nil(t, g.Shipment)
}

func TestSelect_List(t *testing.T) {
	store := seeded()
	g := selectFor(t, store, customer(), resolve("Visa alla mina frakter"))

	require.Equal(t, 50, store.lastPage.PageSize)
	require.Equal(t, ListPayload{Shipments: []ListItem{
		{ID: newestID, Status: "Delivered", StatusSv: "Levererad", FromPlanet: "Mars", FromStation: "Olympus", ToPlanet: "Jupiter", ToStation: "Io-2"},
		{ID: ownedID, Status: "InTransit", StatusSv: "Under transport", FromPlanet: "Mars", FromStation: "Olympus", ToPlanet: "Venus", ToStation: "Cloud-9"},
	}}, g.Payload)
}

func TestSelect_EmptyListStillSerializesAnArray(t *testing.T) {
	g := selectFor(t, &fakeStore{}, customer(), resolve("Visa alla mina frakter"))

	require.Contains(t, g.Instruction, "inte finns några frakter")
	raw, err := Marshal(g.Payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"intent":"list","shipments":[]}`, string(raw))
}

func TestSelect_IdentifierWinsOverOtherCategories(t *testing.T) {
	g := selectFor(t, seeded(), customer(), resolve("Vad är id och innehåll för min senaste frakt?"))
	require.Equal(t, IdentifierPayload{ID: newestID}, g.Payload)
}

func TestSelect_FieldsWinOverLocation(t *testing.T) {
	g := selectFor(t, seeded(), customer(), resolve(
		"Var är frakten "+ownedID.String()+"?",
		"Vem är mottagaren?",
	))

	p, ok := g.Payload.(FieldsPayload)
	require.True(t, ok, "got %T", g.Payload)
	require.Equal(t, []string{"ReceiverName"}, p.Requested)
	require.Equal(t, "Cy", p.Receiver.Name)
	require.Equal(t, "InTransit", p.Status)
	require.Equal(t, "Under transport", p.StatusSv)
}

func TestSelect_AllInfo(t *testing.T) {
	g := selectFor(t, seeded(), customer(), resolve("Ge mig all info om frakten "+ownedID.String()))

	p, ok := g.Payload.(AllInfoPayload)
	require.True(t, ok, "got %T", g.Payload)
	require.Equal(t, ownedID, p.ID)
	require.True(t, p.HasInsurance)
	require.Equal(t, "High", p.Priority)
	require.Equal(t, "InTransit", p.Status)
	require.Equal(t, "Under transport", p.StatusSv)

	raw, err := Marshal(p)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"status":"InTransit","statusSv":"Under transport"`)
}

func TestSelect_StoreErrorsAreReturned(t *testing.T) {
	boom := errors.New("boom")

	s, err := NewSelector(&fakeStore{listErr: boom})
	require.NoError(t, err)
	_, err = s.Select(context.Background(), customer(), resolve("senaste"))
	require.ErrorIs(t, err, boom)

	s, err = NewSelector(&fakeStore{getErr: boom})
	require.NoError(t, err)
	_, err = s.Select(context.Background(), customer(), resolve(ownedID.String()))
	require.ErrorIs(t, err, boom)
}

func TestSelect_AuthenticatedWithoutUserID(t *testing.T) {
	s, err := NewSelector(seeded())
	require.NoError(t, err)
	_, err = s.Select(context.Background(), domain.Identity{Authenticated: true, Role: domain.RoleCustomer}, resolve("senaste"))
	require.ErrorIs(t, err, ErrMissingUserID)
}

func TestLocationPhrase(t *testing.T) {
	base := domain.Shipment{Sender: domain.Party{Planet: "Mars"}, Receiver: domain.Party{Planet: "Venus"}}
	cases := map[domain.ShipmentStatus]string{
		domain.StatusInTransit:          "Under transport till Venus",
		domain.StatusApproved:           "På Mars, väntar på pilot",
		domain.StatusAssigned:           "På Mars, väntar på avgång",
		domain.StatusWaitingForApproval: "På Mars, väntar på godkännande",
		domain.StatusDelivered:          "Levererad till Venus",
		domain.StatusCancelled:          "På Mars",
		domain.StatusDenied:             "På Mars",
		"Teleported":                    "Okänd plats",
	}
	for status, want := range cases {
		s := base
		s.Status = status
		require.Equal(t, want, LocationPhrase(s), string(status))
	}
}

func TestMarshal_PutsIntentFirst(t *testing.T) {
	raw, err := Marshal(IdentifierPayload{ID: ownedID})
	require.NoError(t, err)
	require.Equal(t, `{"intent":"id","id":"`+ownedID.String()+`"}`, string(raw))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "id", decoded["intent"])

	_, err = Marshal(nil)
	require.Error(t, err)
}
