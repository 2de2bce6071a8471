package intent

import (
	"math/bits"
	"strings"
)

// Field is a single shipment attribute a user can ask about.
type Field uint8

const (
	SenderName Field = iota
	SenderEmail
	SenderPlanet
	SenderStation
	ReceiverName
	ReceiverEmail
	ReceiverPlanet
	ReceiverStation
	Priority
	HasInsurance
	Description
	Weight
	Category
	Status
	fieldCount
)

var fieldNames = [fieldCount]string{
	"SenderName",
	"SenderEmail",
	"SenderPlanet",
	"SenderStation",
	"ReceiverName",
	"ReceiverEmail",
	"ReceiverPlanet",
	"ReceiverStation",
	"Priority",
	"HasInsurance",
	"Description",
	"Weight",
	"Category",
	"Status",
}

func (f Field) String() string {
	if f >= fieldCount {
		return "Unknown"
	}
	return fieldNames[f]
}

// FieldSet is an unordered set of fields. The zero value is empty.
type FieldSet uint16

// FieldsOf builds a set from the given fields.
func FieldsOf(fields ...Field) FieldSet {
	var s FieldSet
	for _, f := range fields {
		s = s.With(f)
	}
	return s
}

func (s FieldSet) With(f Field) FieldSet { return s | 1<<f }

func (s FieldSet) Has(f Field) bool { return s&(1<<f) != 0 }

func (s FieldSet) Empty() bool { return s == 0 }

func (s FieldSet) Len() int { return bits.OnesCount16(uint16(s)) }

// SubsetOf reports whether every field of s is also in o.
func (s FieldSet) SubsetOf(o FieldSet) bool { return s&^o == 0 }

// Fields lists the members in declaration order.
func (s FieldSet) Fields() []Field {
	out := make([]Field, 0, s.Len())
	for f := Field(0); f < fieldCount; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Names lists the member names in declaration order.
func (s FieldSet) Names() []string {
	fields := s.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.String()
	}
	return out
}

func (s FieldSet) String() string {
	return "{" + strings.Join(s.Names(), ",") + "}"
}

// detectFields maps role and attribute cues in text to requested fields.
func detectFields(text string) FieldSet {
	var s FieldSet
	sender := senderRe.MatchString(text) || customerRe.MatchString(text)
	receiver := receiverRe.MatchString(text)

	sided := []struct {
		cue              bool
		sender, receiver Field
	}{
		{nameRe.MatchString(text), SenderName, ReceiverName},
		{emailRe.MatchString(text), SenderEmail, ReceiverEmail},
		{planetRe.MatchString(text), SenderPlanet, ReceiverPlanet},
		{stationRe.MatchString(text), SenderStation, ReceiverStation},
	}
	for _, a := range sided {
		if !a.cue {
			continue
		}
		if sender {
			s = s.With(a.sender)
		}
		if receiver {
			s = s.With(a.receiver)
		}
	}

	if priorityRe.MatchString(text) {
		s = s.With(Priority)
	}
	if insuranceRe.MatchString(text) {
		s = s.With(HasInsurance)
	}
	if descriptionRe.MatchString(text) {
		s = s.With(Description)
	}
	if weightRe.MatchString(text) {
		s = s.With(Weight)
	}
	if categoryRe.MatchString(text) {
		s = s.With(Category)
	}
	if statusRe.MatchString(text) {
		s = s.With(Status)
	}
	return s
}
