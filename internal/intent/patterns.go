package intent

import (
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"
)

// matchTimeout bounds backtracking on a single turn.
const matchTimeout = time.Second

// pattern is a compiled expression with .NET semantics: \b and \w count
// å, ä, ö and é as word characters, so "idé" never matches a bare "id".
type pattern struct {
	re *regexp2.Regexp
}

func mustPattern(expr string) pattern {
	re := regexp2.MustCompile(expr, regexp2.None)
	re.MatchTimeout = matchTimeout
	return pattern{re: re}
}

// MatchString treats a timed-out match as no match.
func (p pattern) MatchString(text string) bool {
	ok, err := p.re.MatchString(text)
	return err == nil && ok
}

func (p pattern) FindAllString(text string) []string {
	var out []string
	m, err := p.re.FindStringMatch(text)
	for err == nil && m != nil {
		out = append(out, m.String())
		m, err = p.re.FindNextMatch(m)
	}
	return out
}

func (p pattern) ReplaceAllString(text, repl string) string {
	out, err := p.re.Replace(text, repl, -1, -1)
	if err != nil {
		return text
	}
	return out
}

// shipmentNoun covers the bare and inflected forms of the two shipment nouns.
const shipmentNoun = `frakt(?:en|er|erna|ens)?|paket(?:et|en|s)?`

const guidPattern = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

var (
	guidRe         = mustPattern(guidPattern)
	idLabelRe      = mustPattern(`(?i)\bid\s*[:#]?\s*` + guidPattern)
	whereRe        = mustPattern(`(?i)\b(?:var|vart)\s+.*\b(?:` + shipmentNoun + `)\b`)
	pronounWhereRe = mustPattern(`(?i)\b(?:var|vart)\s*(?:är\s+)?(?:den|det)\b`)
	shipmentNounRe = mustPattern(`(?i)\b(?:` + shipmentNoun + `)\b`)
	shipmentCueRe  = mustPattern(`(?i)\b(?:` + shipmentNoun + `|leverans(?:en|er|erna)?)\b`)
	contentsRe     = mustPattern(`(?i)\b(?:inh(?:å|a)ller|inneh(?:å|a)ller|innehåll|vad\s+inneh(?:å|a)ller)\b`)
	pronounRe      = mustPattern(`(?i)\b(?:den|det|denna|detta)\b`)
	latestRe       = mustPattern(`(?i)\bsenaste\b`)
	listRe         = mustPattern(`(?i)(?:lista|visa\s+alla|visa\s+all\s*info|information\s*only|översikt|oversikt)`)
	idWordRe       = mustPattern(`(?i)\bid\b`)
	fullDetailRe   = mustPattern(`(?i)\b(?:ge\s+mig\s+alla?\s+(?:information|info)|visa\s+alla?\s+(?:information|info)|all\s+information|all\s+info|alla\s+detaljer|alla\s+uppgifter|ge\s+mig\s+information|visa\s+information)\b`)
)

// Field cues. Role cues pair with attribute cues; the rest stand alone.
var (
	senderRe   = mustPattern(`(?i)avs(?:ä|a)ndare(?:n|ns)?`)
	receiverRe = mustPattern(`(?i)(?:mottagare(?:n|ns)?|mottagren)`)
	customerRe = mustPattern(`(?i)\bkund(?:en|ens)?\b|customer`)

	nameRe    = mustPattern(`(?i)(?:namn|\bvem(?:\s+är)?\b)`)
	emailRe   = mustPattern(`(?i)(?:e-post|epost|email|mail)`)
	planetRe  = mustPattern(`(?i)planet`)
	stationRe = mustPattern(`(?i)(?:rymdstation|station)`)

	priorityRe    = mustPattern(`(?i)(?:prio|prioritet)`)
	insuranceRe   = mustPattern(`(?i)(?:f(?:ö|o)rs(?:ä|a)kr(?:ing|ad|at)|insurance)`)
	descriptionRe = mustPattern(`(?i)(?:beskrivning|description)`)
	weightRe      = mustPattern(`(?i)(?:vikt|väger|tyngd|hur\s+tung)`)
	categoryRe    = mustPattern(`(?i)(?:kategori|last|inneh(?:å|a)ll)`)
	statusRe      = mustPattern(`(?i)status`)
)

// findShipmentID returns the first token in text that parses as a shipment identifier.
func findShipmentID(text string) uuid.NullUUID {
	for _, m := range guidRe.FindAllString(text) {
		if id, err := uuid.Parse(m); err == nil {
			return uuid.NullUUID{UUID: id, Valid: true}
		}
	}
	return uuid.NullUUID{}
}

// asksForID reports an "id" word that is more than the label of an identifier
// written right after it ("frakten med id 1111…" names a shipment, it does not ask for one).
func asksForID(text string) bool {
	return idWordRe.MatchString(idLabelRe.ReplaceAllString(text, " "))
}
