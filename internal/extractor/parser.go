package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/counsel/internal/session"
)

// headings maps a lower-cased line prefix to the section it opens.
var headings = []struct {
	prefix   string
	category session.Category
}{
	{"career goals", session.CategoryCareerGoal},
	{"action items", session.CategoryActionItem},
}

// itemCutset is stripped from the front of a bullet line.
const itemCutset = "-•*0123456789. "

type lineKind int

const (
	lineIgnored lineKind = iota
	lineHeading
	lineItem
)

// classifiedLine is what classifyLine knows about a single line of the
// generated response, independent of parser state.
type classifiedLine struct {
	kind     lineKind
	category session.Category // lineHeading only
	item     string           // lineItem only
}

// classifyLine decides whether a line opens a section, carries a bullet
// item, or is noise. Headings are checked first, so "Action items: 3" is a
// heading even mid-list.
func classifyLine(raw string) classifiedLine {
	line := strings.TrimSpace(raw)
	if line == "" {
		return classifiedLine{kind: lineIgnored}
	}

	lower := strings.ToLower(line)
	for _, h := range headings {
		if strings.HasPrefix(lower, h.prefix) {
			return classifiedLine{kind: lineHeading, category: h.category}
		}
	}

	if !isBullet(line) {
		return classifiedLine{kind: lineIgnored}
	}
	item := strings.TrimSpace(strings.TrimLeft(line, itemCutset))
	if item == "" {
		return classifiedLine{kind: lineIgnored}
	}
	return classifiedLine{kind: lineItem, item: item}
}

func isBullet(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	switch r {
	case '-', '•', '*':
		return true
	}
	return unicode.IsDigit(r)
}

// parseState is NoSection when category is empty, InSection(category)
// otherwise.
type parseState struct {
	category session.Category
}

func (s parseState) inSection() bool { return s.category != "" }

// parseSections runs the two-state scan over a generated response and
// returns the items found under each heading, in order. Headings may
// repeat; items accumulate.
func parseSections(text string) map[session.Category][]string {
	found := make(map[session.Category][]string, len(headings))
	var state parseState

	for _, raw := range strings.Split(text, "\n") {
		line := classifyLine(raw)
		switch line.kind {
		case lineHeading:
			state = parseState{category: line.category}
		case lineItem:
			if state.inSection() {
				found[state.category] = append(found[state.category], line.item)
			}
		}
	}
	return found
}
