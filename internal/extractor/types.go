package extractor

import (
	"encoding/json"

	"github.com/MikeSquared-Agency/counsel/internal/session"
)

// Wire-level markers for an attempted category that produced nothing.
// They only appear in Map output, never in domain data.
const (
	SentinelCareerGoals = "Career goal extraction failed"
	SentinelActionItems = "Action item extraction failed"
)

// Status is the outcome of extracting one category.
type Status int

const (
	// NotAttempted categories are reserved; the extraction prompt does not
	// ask for them.
	NotAttempted Status = iota
	Extracted
	Empty
)

func (s Status) String() string {
	switch s {
	case Extracted:
		return "extracted"
	case Empty:
		return "empty"
	default:
		return "not_attempted"
	}
}

// Outcome is the tagged per-category result: Extracted carries at least one
// item, Empty and NotAttempted carry none.
type Outcome struct {
	Status Status
	Items  []string
}

// attempted lists the categories the extraction prompt asks for.
var attempted = []session.Category{session.CategoryCareerGoal, session.CategoryActionItem}

func sentinel(c session.Category) string {
	switch c {
	case session.CategoryCareerGoal:
		return SentinelCareerGoals
	case session.CategoryActionItem:
		return SentinelActionItems
	}
	return ""
}

// Takeaways is the result of one extraction. The zero value reports every
// category as not attempted.
type Takeaways struct {
	outcomes map[session.Category]Outcome
}

// NewTakeaways builds the result for the attempted categories from their
// parsed items; a nil or empty list becomes Empty.
func NewTakeaways(careerGoals, actionItems []string) Takeaways {
	return fromSections(map[session.Category][]string{
		session.CategoryCareerGoal: careerGoals,
		session.CategoryActionItem: actionItems,
	})
}

// allEmpty is the result when generation itself failed.
func allEmpty() Takeaways {
	return fromSections(nil)
}

func fromSections(found map[session.Category][]string) Takeaways {
	t := Takeaways{outcomes: make(map[session.Category]Outcome, len(attempted))}
	for _, c := range attempted {
		items := found[c]
		if len(items) == 0 {
			t.outcomes[c] = Outcome{Status: Empty}
			continue
		}
		t.outcomes[c] = Outcome{Status: Extracted, Items: append([]string(nil), items...)}
	}
	return t
}

// Outcome reports how extraction went for c.
func (t Takeaways) Outcome(c session.Category) Outcome {
	return t.outcomes[c]
}

// Items returns the real items for c; nil unless c was Extracted. The
// returned slice must not be modified.
func (t Takeaways) Items(c session.Category) []string {
	return t.outcomes[c].Items
}

// Count is the number of real items across all categories.
func (t Takeaways) Count() int {
	n := 0
	for _, o := range t.outcomes {
		n += len(o.Items)
	}
	return n
}

// Failed lists attempted categories that came back Empty, in category order.
func (t Takeaways) Failed() []session.Category {
	var out []session.Category
	for _, c := range session.Categories {
		if t.outcomes[c].Status == Empty {
			out = append(out, c)
		}
	}
	return out
}

// Map renders the five-key category map callers outside the pipeline
// expect. An Empty category is rendered as its single sentinel string.
func (t Takeaways) Map() map[string][]string {
	m := make(map[string][]string, len(session.Categories))
	for _, c := range session.Categories {
		o := t.outcomes[c]
		switch o.Status {
		case Extracted:
			m[c.Key()] = append([]string(nil), o.Items...)
		case Empty:
			m[c.Key()] = []string{sentinel(c)}
		default:
			m[c.Key()] = []string{}
		}
	}
	return m
}

func (t Takeaways) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map())
}
