package xml

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rezonia/ubl-ingest/internal/money"
)

// TextValue returns the textual form of a node. Object-shaped nodes
// prefer the embedded text slot, then a "value" slot; array-wrapped
// scalars resolve through their first element. ok is false when nothing
// usable was found: absence, never an empty string.
func TextValue(n *Node) (string, bool) {
	switch n.Kind() {
	case KindScalar:
		if n.text == "" {
			return "", false
		}
		return n.text, true
	case KindMapping:
		if s, ok := TextValue(n.Get(textKey)); ok {
			return s, true
		}
		return TextValue(n.Get("value"))
	case KindSequence:
		if len(n.seq) == 0 {
			return "", false
		}
		return TextValue(n.seq[0])
	default:
		return "", false
	}
}

// NumberValue coerces a node to a decimal rounded to places fractional
// digits. Decimal commas are normalized to dots first. Any parse failure
// resolves to zero so a malformed number never blocks ingestion;
// recovered reports that this happened so callers can audit it.
func NumberValue(n *Node, places int32) (d decimal.Decimal, recovered bool) {
	raw, ok := TextValue(n)
	if !ok {
		return money.Zero, false
	}
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return money.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return money.Zero, true
	}
	return d.Round(places), false
}

// ArrayOf normalizes absent/scalar/sequence into an ordered slice:
// empty when absent, the items of a sequence, or the single node itself.
func ArrayOf(n *Node) []*Node {
	switch n.Kind() {
	case KindAbsent:
		return nil
	case KindSequence:
		return n.seq
	default:
		return []*Node{n}
	}
}

// first returns the first element of an ArrayOf view, nil when empty.
func first(n *Node) *Node {
	items := ArrayOf(n)
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

// Recovery records one malformed numeric field that was resolved to
// zero during mapping.
type Recovery struct {
	Field string `json:"field"`
	Raw   string `json:"raw"`
}

// numbers reads numeric fields while collecting recovery notes.
type numbers struct {
	notes []Recovery
}

func (r *numbers) read(n *Node, places int32, field string) decimal.Decimal {
	d, recovered := NumberValue(n, places)
	if recovered {
		raw, _ := TextValue(n)
		r.notes = append(r.notes, Recovery{Field: field, Raw: raw})
	}
	return d
}
