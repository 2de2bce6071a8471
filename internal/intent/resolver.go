// Package intent classifies the latest user turn of a Swedish support chat.
//
// Resolution is a pure function of the submitted history: one scan of the last
// user turn, then at most one backward search for a missing referent and at
// most one backward search for a missing question category.
package intent

import (
	"github.com/google/uuid"

	"cargo-chat/internal/domain"
)

// Result is the resolved intent of the latest user turn.
type Result struct {
	ShipmentID  uuid.NullUUID
	WantsLatest bool

	Location   bool
	Contents   bool
	Identifier bool
	FullDetail bool
	Fields     FieldSet

	WantsList bool

	pronounRef  bool
	shipmentCue bool
}

// HasExplicitReferent reports whether a shipment was named by id or as "senaste".
func (r Result) HasExplicitReferent() bool {
	return r.ShipmentID.Valid || r.WantsLatest
}

// HasSpecificIntent reports whether the turn asks something about a single shipment.
func (r Result) HasSpecificIntent() bool {
	return r.Location || r.Contents || r.Identifier || r.FullDetail || !r.Fields.Empty()
}

// IsShipmentRelated reports whether answering would need shipment data.
func (r Result) IsShipmentRelated() bool {
	return r.HasSpecificIntent() || r.HasExplicitReferent() || r.WantsList
}

func (r Result) hasReferent() bool {
	return r.HasExplicitReferent() || r.pronounRef
}

// signals holds what a single turn says on its own.
type signals struct {
	id           uuid.NullUUID
	latest       bool
	where        bool
	pronounWhere bool
	contents     bool
	idWord       bool
	noun         bool
	pronoun      bool
	cue          bool
	list         bool
	fullDetail   bool
	fields       FieldSet
}

func scan(text string) signals {
	return signals{
		id:           findShipmentID(text),
		latest:       latestRe.MatchString(text),
		where:        whereRe.MatchString(text),
		pronounWhere: pronounWhereRe.MatchString(text),
		contents:     contentsRe.MatchString(text),
		idWord:       asksForID(text),
		noun:         shipmentNounRe.MatchString(text),
		pronoun:      pronounRe.MatchString(text),
		cue:          shipmentCueRe.MatchString(text),
		list:         listRe.MatchString(text),
		fullDetail:   fullDetailRe.MatchString(text),
		fields:       detectFields(text),
	}
}

// asksIdentifier needs something to attach the "id" word to.
func (s signals) asksIdentifier(hasReferent bool) bool {
	return s.idWord && (s.pronoun || s.noun || hasReferent)
}

// Resolve classifies the last user turn of history. It never fails: a history
// without user turns yields the zero Result.
func Resolve(history []domain.ChatMessage) Result {
	turns := userTurns(history)
	if len(turns) == 0 {
		return Result{}
	}
	cur := scan(turns[len(turns)-1])
	prior := turns[:len(turns)-1]

	r := Result{
		ShipmentID:  cur.id,
		WantsLatest: cur.latest,
		Location:    cur.where || cur.pronounWhere,
		Contents:    cur.contents,
		FullDetail:  cur.fullDetail,
		Fields:      cur.fields,
		WantsList:   cur.list,
		shipmentCue: cur.cue,
	}
	r.Identifier = cur.asksIdentifier(r.HasExplicitReferent())
	r.pronounRef = cur.pronounWhere || (cur.pronoun && (cur.cue || r.HasSpecificIntent()))

	if (r.pronounRef || r.shipmentCue || r.HasSpecificIntent()) && !r.HasExplicitReferent() {
		if ref, ok := backResolve(prior); ok {
			r.ShipmentID = ref.id
			r.WantsLatest = ref.latest
			r.Identifier = cur.asksIdentifier(true)
		}
	}

	if r.hasReferent() && !r.HasSpecificIntent() {
		r = inherit(r, prior)
	}
	return r
}

func userTurns(history []domain.ChatMessage) []string {
	out := make([]string, 0, len(history))
	for _, m := range history {
		if m.IsUser() {
			out = append(out, m.Content)
		}
	}
	return out
}

// searchBack visits turns newest first and stops at the first hit.
func searchBack[T any](turns []string, match func(string) (T, bool)) (T, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if v, ok := match(turns[i]); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

type referent struct {
	id     uuid.NullUUID
	latest bool
}

// backResolve finds the most recent explicit id, or failing that "senaste", in prior turns.
func backResolve(prior []string) (referent, bool) {
	return searchBack(prior, func(text string) (referent, bool) {
		if id := findShipmentID(text); id.Valid {
			return referent{id: id}, true
		}
		if latestRe.MatchString(text) {
			return referent{latest: true}, true
		}
		return referent{}, false
	})
}

// inherit copies the question category of the most recent prior turn that had one.
func inherit(r Result, prior []string) Result {
	got, ok := searchBack(prior, func(text string) (Result, bool) {
		s := scan(text)
		var c Result
		switch {
		case s.where || s.pronounWhere:
			c.Location = true
		case s.idWord:
			c.Identifier = true
		case s.contents:
			c.Contents = true
		case s.fullDetail:
			c.FullDetail = true
		case !s.fields.Empty():
			c.Fields = s.fields
		default:
			return Result{}, false
		}
		return c, true
	})
	if !ok {
		return r
	}
	r.Location = got.Location
	r.Identifier = got.Identifier
	r.Contents = got.Contents
	r.FullDetail = got.FullDetail
	r.Fields = got.Fields
	return r
}
