package stock

import "strings"

// Markers are the configured substrings the classifier looks for. Matching
// is case-insensitive; an empty marker never matches.
type Markers struct {
	OutOfStock string
	Blocking   string
	// Identifier is text that should always appear in the element on a
	// correctly rendered page. When set, it vetoes a blocking match.
	Identifier string
}

type Classifier struct {
	outOfStock string
	blocking   string
	identifier string
}

func NewClassifier(m Markers) Classifier {
	return Classifier{
		outOfStock: Normalize(m.OutOfStock),
		blocking:   Normalize(m.Blocking),
		identifier: Normalize(m.Identifier),
	}
}

// Classify maps the element text of one inspection to a state. ok is false
// when no element text was obtained at all.
//
// Out-of-stock wins over everything so the monitor never claims availability
// when both markers appear. The blocking rule is a heuristic: a page that
// shows the blocking marker but also the identifier is trusted and falls
// through to in stock. Expect some false positives and negatives there.
func (c Classifier) Classify(ok bool, text string) State {
	text = Normalize(text)
	switch {
	case !ok || text == "":
		return Unknown
	case contains(text, c.outOfStock):
		return OutOfStock
	case contains(text, c.blocking) && !contains(text, c.identifier):
		return Blocked
	}
	return InStock
}

func contains(text, marker string) bool {
	return marker != "" && strings.Contains(text, marker)
}

// Normalize lower-cases s and collapses every run of whitespace (NBSP
// included) to one space.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
