package xml

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rezonia/ubl-ingest/internal/model"
	"github.com/rezonia/ubl-ingest/internal/money"
)

// Per-variant element names for line containers and quantities.
func lineKeys(kind model.Kind) (lineKey, quantityKey string) {
	switch kind {
	case model.KindCreditNote:
		return "CreditNoteLine", "CreditedQuantity"
	case model.KindDebitNote:
		return "DebitNoteLine", "DebitedQuantity"
	default:
		return "InvoiceLine", "InvoicedQuantity"
	}
}

func mapLines(kind model.Kind, node *Node, documentID string, nums *numbers) []model.LineItem {
	lineKey, quantityKey := lineKeys(kind)
	raw := ArrayOf(node.Get(lineKey))

	lines := make([]model.LineItem, 0, len(raw))
	for idx, ln := range raw {
		lines = append(lines, mapLine(ln, quantityKey, documentID, idx, nums))
	}
	return lines
}

// mapLine reconciles one line's numeric fields in a single pass. Each
// derivation step only fires while its target is still zero, so whatever
// subset of {quantity, unit price, referential price, line value, tax
// percent} the issuer emitted, the rest is reconstructed without
// iterating to a fixed point.
func mapLine(ln *Node, quantityKey, documentID string, idx int, nums *numbers) model.LineItem {
	item := model.LineItem{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		LineNumber: lineNumber(ln, idx),
	}

	qty := ln.Get(quantityKey)
	item.Cantidad = nums.read(qty, money.PricePlaces, quantityKey)
	item.Unidad = unitCode(ln, qty, quantityKey)
	item.Descripcion = lineDescription(ln)
	item.Codigo = lineCode(ln)

	item.PrecioUnitario = nums.read(ln.At("Price", "PriceAmount"), money.PricePlaces, "Price.PriceAmount")

	// Referential price: the alternative-price entry typed "01" carries
	// the tax-inclusive price.
	for _, alt := range ArrayOf(ln.At("PricingReference", "AlternativeConditionPrice")) {
		if code, _ := TextValue(alt.Get("PriceTypeCode")); code == "01" {
			ref := nums.read(alt.Get("PriceAmount"), money.PricePlaces, "PricingReference.AlternativeConditionPrice.PriceAmount")
			item.PrecioReferencial = &ref
			break
		}
	}

	igvSub := findIGVSubtotal(ln)
	var base decimal.Decimal
	if !igvSub.IsAbsent() {
		item.IGVMonto = nums.read(igvSub.Get("TaxAmount"), money.TotalPlaces, "TaxSubtotal.TaxAmount")
		if pct := igvSub.At("TaxCategory", "Percent"); !pct.IsAbsent() {
			p := nums.read(pct, money.TotalPlaces, "TaxCategory.Percent")
			item.IGVPorcentaje = &p
		}
		item.IGVAfectacionCodigo, _ = TextValue(igvSub.At("TaxCategory", "TaxExemptionReasonCode"))
		base = nums.read(igvSub.Get("TaxableAmount"), money.PricePlaces, "TaxSubtotal.TaxableAmount")
	}

	item.ValorLinea = nums.read(ln.Get("LineExtensionAmount"), money.PricePlaces, "LineExtensionAmount")
	if item.ValorLinea.IsZero() && !base.IsZero() {
		item.ValorLinea = base
	}

	derivePrices(&item)
	return item
}

// derivePrices fills whichever of precioUnitario/valorLinea is still
// missing from the fields already resolved.
func derivePrices(item *model.LineItem) {
	ref := item.PrecioReferencial
	pct := item.IGVPorcentaje

	if item.PrecioUnitario.IsZero() && ref != nil && pct != nil {
		item.PrecioUnitario = money.ExclusiveOfTax(*ref, *pct)
	}
	if item.ValorLinea.IsZero() && !item.Cantidad.IsZero() && !item.PrecioUnitario.IsZero() {
		item.ValorLinea = money.Mul(item.PrecioUnitario, item.Cantidad)
	}
	if item.ValorLinea.IsZero() && !item.Cantidad.IsZero() && ref != nil && pct != nil {
		item.ValorLinea = money.Mul(money.ExclusiveOfTax(*ref, *pct), item.Cantidad)
	}
	if item.PrecioUnitario.IsZero() && !item.ValorLinea.IsZero() && !item.Cantidad.IsZero() {
		item.PrecioUnitario = money.Div(item.ValorLinea, item.Cantidad)
	}
}

// findIGVSubtotal locates the line's IGV entry (scheme "1000") among its
// own tax breakdown, which issuers nest either under TaxTotal or
// directly on the line.
func findIGVSubtotal(ln *Node) *Node {
	subs := ArrayOf(ln.At("TaxTotal", "TaxSubtotal"))
	if len(subs) == 0 {
		subs = ArrayOf(ln.Get("TaxSubtotal"))
	}
	for _, sub := range subs {
		if taxSchemeID(sub) == model.IGVSchemeID {
			return sub
		}
	}
	return nil
}

func taxSchemeID(sub *Node) string {
	if id, ok := TextValue(sub.At("TaxCategory", "TaxScheme", "ID")); ok {
		return id
	}
	id, _ := TextValue(sub.At("TaxScheme", "ID"))
	return id
}

func lineNumber(ln *Node, idx int) int {
	if raw, ok := TextValue(ln.Get("ID")); ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return idx + 1
}

func unitCode(ln, qty *Node, quantityKey string) string {
	if u, ok := TextValue(qty.Get("unitCode")); ok {
		return u
	}
	u, _ := TextValue(ln.Get(quantityKey + "UnitCode"))
	return u
}

func lineDescription(ln *Node) string {
	for _, d := range ArrayOf(ln.At("Item", "Description")) {
		if v, ok := TextValue(d); ok {
			return v
		}
	}
	if v, ok := TextValue(ln.At("Item", "Name")); ok {
		return v
	}
	v, _ := TextValue(ln.Get("Description"))
	return v
}

func lineCode(ln *Node) string {
	if v, ok := TextValue(ln.At("Item", "SellersItemIdentification", "ID")); ok {
		return v
	}
	if v, ok := TextValue(ln.At("Item", "StandardItemIdentification", "ID")); ok {
		return v
	}
	v, _ := TextValue(ln.At("SellersItemIdentification", "ID"))
	return v
}

// mapTaxes emits one TaxLine per tax-scheme entry under the document's
// own TaxTotal.
func mapTaxes(taxTotal *Node, documentID string, nums *numbers) []model.TaxLine {
	subs := ArrayOf(taxTotal.Get("TaxSubtotal"))
	taxes := make([]model.TaxLine, 0, len(subs))
	for _, sub := range subs {
		t := model.TaxLine{
			ID:             uuid.NewString(),
			DocumentID:     documentID,
			CodigoImpuesto: taxSchemeID(sub),
			Base:           nums.read(sub.Get("TaxableAmount"), money.TotalPlaces, "TaxTotal.TaxSubtotal.TaxableAmount"),
			Monto:          nums.read(sub.Get("TaxAmount"), money.TotalPlaces, "TaxTotal.TaxSubtotal.TaxAmount"),
		}
		if pct := sub.At("TaxCategory", "Percent"); !pct.IsAbsent() {
			p := nums.read(pct, money.TotalPlaces, "TaxTotal.TaxSubtotal.TaxCategory.Percent")
			t.Porcentaje = &p
		}
		t.Afectacion, _ = TextValue(sub.At("TaxCategory", "TaxExemptionReasonCode"))
		taxes = append(taxes, t)
	}
	return taxes
}
