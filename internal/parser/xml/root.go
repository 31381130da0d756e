package xml

import (
	"github.com/rezonia/ubl-ingest/internal/model"
)

var rootKinds = []model.Kind{model.KindInvoice, model.KindCreditNote, model.KindDebitNote}

// Detect identifies which UBL variant a parsed top-level node carries.
// It tries an exact un-prefixed key first, then re-scans all top-level
// keys matching by prefix-stripped local name, because issuers emit both
// bare and namespaced roots (`<Invoice>` and `<ns1:Invoice>` alike).
func Detect(doc *Node) (model.Kind, error) {
	for _, kind := range rootKinds {
		if !doc.Get(string(kind)).IsAbsent() {
			return kind, nil
		}
	}
	for _, key := range doc.Keys() {
		base := localName(key)
		for _, kind := range rootKinds {
			if base == string(kind) {
				return kind, nil
			}
		}
	}
	return "", model.NewUnsupportedDocumentError(doc.Keys())
}

// Root resolves the variant and returns the root element's node,
// whichever key spelling the source used.
func Root(doc *Node) (model.Kind, *Node, error) {
	kind, err := Detect(doc)
	if err != nil {
		return "", nil, err
	}
	if n := doc.Get(string(kind)); !n.IsAbsent() {
		return kind, n, nil
	}
	for _, key := range doc.Keys() {
		if localName(key) == string(kind) {
			return kind, doc.Get(key), nil
		}
	}
	return "", nil, model.NewUnsupportedDocumentError(doc.Keys())
}
