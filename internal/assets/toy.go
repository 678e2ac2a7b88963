package assets

import (
	"fmt"
	"path"
	"strings"
)

// Toy selects an optional sprite drawn next to the avatar.
type Toy uint8

// Embedded toys. ToyNone draws nothing.
const (
	ToyNone Toy = iota
	ToyParrot
	ToyFox
	ToyCat
	ToyDuck
	ToyHeart
	ToyStar

	toyCount
)

var toyNames = [toyCount]string{
	ToyNone:   "none",
	ToyParrot: "parrot",
	ToyFox:    "fox",
	ToyCat:    "cat",
	ToyDuck:   "duck",
	ToyHeart:  "heart",
	ToyStar:   "star",
}

// AllToys lists every toy including ToyNone.
func AllToys() []Toy {
	out := make([]Toy, 0, toyCount)
	for t := Toy(0); t < toyCount; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t names an embedded toy or ToyNone.
func (t Toy) Valid() bool { return t < toyCount }

func (t Toy) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Toy(%d)", uint8(t))
	}
	return toyNames[t]
}

// Filename returns the sprite reference used by the card document, or "" for
// ToyNone and invalid values.
func (t Toy) Filename() string {
	if t == ToyNone || !t.Valid() {
		return ""
	}
	return toyNames[t] + ".png"
}

// ParseToy resolves a toy by name. The empty string is ToyNone.
func ParseToy(name string) (Toy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ToyNone, nil
	}
	for t := Toy(0); t < toyCount; t++ {
		if n == toyNames[t] {
			return t, nil
		}
	}
	return ToyNone, fmt.Errorf("%w: %q", ErrUnknownToy, name)
}

// ToyFromFilename maps a sprite reference back to its toy.
func ToyFromFilename(href string) (Toy, bool) {
	base := path.Base(href)
	for t := ToyNone + 1; t < toyCount; t++ {
		if base == t.Filename() {
			return t, true
		}
	}
	return ToyNone, false
}
