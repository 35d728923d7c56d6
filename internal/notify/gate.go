// Package notify decides when a classified state deserves an email.
//
// Entering IN_STOCK notifies once; the gate stays quiet until OUT_OF_STOCK
// re-arms it. BLOCKED notifies on every occurrence because each one needs a
// human to look at the selectors and markers. UNKNOWN never notifies and
// leaves the memory alone.
package notify

import (
	"fmt"

	"github.com/yourneighborhoodchef/pagewatch/internal/stock"
)

const (
	SubjectInStock = "Product In Stock"
	SubjectBlocked = "Possible Blocking Detected"
)

type Decision struct {
	Send    bool
	State   stock.State
	Subject string
	Body    string
}

// Memory is the last state the gate acted on. The zero value has no memory.
type Memory struct {
	last *stock.State
}

func (m Memory) Last() (stock.State, bool) {
	if m.last == nil {
		return stock.Unknown, false
	}
	return *m.last, true
}

func (m *Memory) set(s stock.State) { m.last = &s }

// Gate is not safe for concurrent use; the monitor loop owns it.
type Gate struct {
	url    string
	memory Memory
}

func NewGate(url string) *Gate {
	return &Gate{url: url}
}

func (g *Gate) Memory() Memory { return g.memory }

// Evaluate returns what to do about state and updates the memory before the
// caller sends anything, so a failed delivery is not retried on every tick.
func (g *Gate) Evaluate(state stock.State) Decision {
	d := Decision{State: state}
	switch state {
	case stock.InStock:
		if last, ok := g.memory.Last(); ok && last == stock.InStock {
			return d
		}
		g.memory.set(stock.InStock)
		d.Send = true
		d.Subject = SubjectInStock
		d.Body = fmt.Sprintf("The product is in stock! Check it out: %s", g.url)
	case stock.OutOfStock:
		g.memory.set(stock.OutOfStock)
	case stock.Blocked:
		d.Send = true
		d.Subject = SubjectBlocked
		d.Body = fmt.Sprintf("The script might be blocked. Check the page: %s", g.url)
	}
	return d
}
