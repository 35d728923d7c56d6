package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var markers = Markers{
	OutOfStock: "finns ej i lager",
	Blocking:   "captcha",
}

func TestClassify(t *testing.T) {
	c := NewClassifier(markers)

	cases := []struct {
		name string
		ok   bool
		text string
		want State
	}{
		{name: "add to cart", ok: true, text: "Lägg i kundvagn", want: InStock},
		{name: "out of stock exact", ok: true, text: "Finns ej i lager", want: OutOfStock},
		{name: "out of stock padded", ok: true, text: "  \n FINNS EJ I LAGER\t", want: OutOfStock},
		{name: "out of stock nbsp", ok: true, text: "Finns\u00a0ej i  lager", want: OutOfStock},
		{name: "out of stock inside sentence", ok: true, text: "Tyvärr: finns ej i lager just nu", want: OutOfStock},
		{name: "empty", ok: true, text: "", want: Unknown},
		{name: "whitespace only", ok: true, text: " \n\t ", want: Unknown},
		{name: "element not found", ok: false, text: "", want: Unknown},
		{name: "not ok ignores text", ok: false, text: "Lägg i kundvagn", want: Unknown},
		{name: "blocking marker", ok: true, text: "Please solve the CAPTCHA", want: Blocked},
		{name: "both markers favour out of stock", ok: true, text: "captcha finns ej i lager", want: OutOfStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.ok, tc.text))
		})
	}
}

func TestClassifyOutOfStockAlwaysWins(t *testing.T) {
	c := NewClassifier(markers)
	for _, wrap := range []struct{ before, after string }{
		{"", ""},
		{"   ", "   "},
		{"Status: ", "."},
		{"CAPTCHA ", ""},
		{"\n\t", " "},
	} {
		for _, marker := range []string{"finns ej i lager", "FINNS EJ I LAGER", "Finns Ej I Lager"} {
			text := wrap.before + marker + wrap.after
			assert.Equal(t, OutOfStock, c.Classify(true, text), "text %q", text)
		}
	}
}

// The blocking rule is heuristic; these cases pin the current behaviour
// rather than claim it is always right.
func TestClassifyBlockingHeuristic(t *testing.T) {
	c := NewClassifier(Markers{
		OutOfStock: "finns ej i lager",
		Blocking:   "verify",
		Identifier: "kundvagn",
	})

	assert.Equal(t, Blocked, c.Classify(true, "Verify you are human"))
	// Identifier present: the page rendered the product, so trust it.
	assert.Equal(t, InStock, c.Classify(true, "Verify size, then Lägg i kundvagn"))
	assert.Equal(t, InStock, c.Classify(true, "Lägg i kundvagn"))
	// Unrecognisable text without the blocking marker is still in stock.
	assert.Equal(t, InStock, c.Classify(true, "Something else entirely"))
}

func TestClassifyEmptyMarkersNeverMatch(t *testing.T) {
	c := NewClassifier(Markers{})
	assert.Equal(t, InStock, c.Classify(true, "anything"))
	assert.Equal(t, Unknown, c.Classify(true, ""))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "IN_STOCK", InStock.String())
	assert.Equal(t, "OUT_OF_STOCK", OutOfStock.String())
	assert.Equal(t, "BLOCKED", Blocked.String())
	assert.Equal(t, "UNKNOWN", Unknown.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}
