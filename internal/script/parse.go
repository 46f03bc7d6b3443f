package script

import (
	"regexp"
	"strings"
)

// LineKind distinguishes labeled turns from free text.
type LineKind int

const (
	LinePlain LineKind = iota
	LineTurn
)

// Partner identifies one side of the couple.
type Partner string

const (
	PartnerA Partner = "A"
	PartnerB Partner = "B"
)

// Role is the part a partner plays in a turn.
type Role string

const (
	RoleSpeaker  Role = "Speaker"
	RoleListener Role = "Listener"
)

// Line is one non-blank line of a script. Partner, Role and Label are only
// set for LineTurn.
type Line struct {
	Kind    LineKind
	Partner Partner
	Role    Role
	Label   string // matched prefix, e.g. "Partner A (Speaker):"
	Text    string
}

// IsTurn reports whether the line is a labeled turn.
func (l Line) IsTurn() bool {
	return l.Kind == LineTurn
}

// Transcript is a parsed script. SwitchIndex is -1 when no line marks the
// role switch.
type Transcript struct {
	Lines       []Line
	SwitchIndex int
}

// HasSwitch reports whether a role-switch boundary was found.
func (t Transcript) HasSwitch() bool {
	return t.SwitchIndex >= 0
}

// Turns returns only the labeled turns, in order.
func (t Transcript) Turns() []Line {
	var turns []Line
	for _, l := range t.Lines {
		if l.IsTurn() {
			turns = append(turns, l)
		}
	}
	return turns
}

var (
	turnLabelRe = regexp.MustCompile(`^Partner (A|B) \((Speaker|Listener)\):`)
	lineBreakRe = regexp.MustCompile(`\r?\n`)
)

// Parse splits raw script text into lines and finds the role switch. It never
// fails: anything without an exact turn label becomes a plain line.
func Parse(raw string) Transcript {
	t := Transcript{SwitchIndex: -1}

	for _, line := range lineBreakRe.Split(raw, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		t.Lines = append(t.Lines, classify(line))
	}

	for i, l := range t.Lines {
		if l.IsTurn() && l.Partner == PartnerB && l.Role == RoleSpeaker {
			t.SwitchIndex = i
			break
		}
	}
	return t
}

func classify(line string) Line {
	m := turnLabelRe.FindStringSubmatch(line)
	if m == nil {
		return Line{Kind: LinePlain, Text: line}
	}
	return Line{
		Kind:    LineTurn,
		Partner: Partner(m[1]),
		Role:    Role(m[2]),
		Label:   m[0],
		Text:    strings.TrimSpace(line[len(m[0]):]),
	}
}
