package xml

import (
	"strings"

	"github.com/google/uuid"

	"github.com/rezonia/ubl-ingest/internal/model"
	"github.com/rezonia/ubl-ingest/internal/money"
)

// partyNameChain lists, in priority order, the UBL locations tried when
// resolving a party name. The first non-absent text wins; array-wrapped
// candidates resolve through their first element.
var partyNameChain = []func(party *Node) *Node{
	func(p *Node) *Node { return p.At("PartyLegalEntity", "RegistrationName") },
	func(p *Node) *Node { return p.At("PartyName", "Name") },
	func(p *Node) *Node { return p.Get("RegistrationName") },
	func(p *Node) *Node { return p.Get("Name") },
	func(p *Node) *Node { return p.At("PartyLegalEntity", "CorporateName") },
}

// addressParts is the fixed order in which postal address components are
// joined into a single direccion string.
var addressParts = []func(addr *Node) *Node{
	func(a *Node) *Node { return a.Get("StreetName") },
	func(a *Node) *Node { return a.Get("CitySubdivisionName") },
	func(a *Node) *Node { return a.Get("CityName") },
	func(a *Node) *Node { return a.Get("District") },
	func(a *Node) *Node { return a.Get("CountrySubentity") },
	func(a *Node) *Node { return a.At("Country", "IdentificationCode") },
}

// MapDocument produces the canonical record set for one root-typed node.
// rawRoot may still carry namespace prefixes; it is normalized here.
// The returned recovery notes list every malformed numeric field that
// was resolved to zero.
func MapDocument(kind model.Kind, rawRoot *Node, hash, storageName string) (*model.MappedDocument, []Recovery) {
	node := Denamespace(rawRoot)
	nums := &numbers{}

	doc := model.Document{
		ID:          uuid.NewString(),
		Tipo:        documentType(kind, node),
		Moneda:      currency(node),
		Hash:        hash,
		StorageName: storageName,
	}

	id, _ := TextValue(node.Get("ID"))
	doc.Serie, doc.Numero = SplitSerieNumero(id)

	doc.IssueDate, _ = TextValue(node.Get("IssueDate"))
	doc.IssueTime, _ = TextValue(node.Get("IssueTime"))
	doc.DueDate, _ = TextValue(node.Get("DueDate"))
	doc.Legends = readLegends(node.Get("Note"))

	supParty := supplierParty(node)
	cusParty := customerParty(node)
	doc.Issuer = mapIssuer(supParty)
	doc.Customer = mapCustomer(cusParty)

	doc.Payment = readPayment(node, nums)

	legal := first(node.Get("LegalMonetaryTotal"))
	doc.Subtotal = nums.read(legal.Get("LineExtensionAmount"), money.TotalPlaces, "LegalMonetaryTotal.LineExtensionAmount")
	doc.Descuentos = nums.read(legal.Get("AllowanceTotalAmount"), money.TotalPlaces, "LegalMonetaryTotal.AllowanceTotalAmount")
	doc.TaxInclusive = nums.read(legal.Get("TaxInclusiveAmount"), money.TotalPlaces, "LegalMonetaryTotal.TaxInclusiveAmount")
	doc.Total = nums.read(legal.Get("PayableAmount"), money.TotalPlaces, "LegalMonetaryTotal.PayableAmount")

	taxTotal := first(node.Get("TaxTotal"))
	declaredIGV := nums.read(taxTotal.Get("TaxAmount"), money.TotalPlaces, "TaxTotal.TaxAmount")

	lines := mapLines(kind, node, doc.ID, nums)
	taxes := mapTaxes(taxTotal, doc.ID, nums)

	// The declared total is trusted when present and nonzero; otherwise
	// it is recomputed from the IGV tax lines.
	doc.TotalIGV = declaredIGV
	if declaredIGV.IsZero() {
		sum := money.Zero
		for _, t := range taxes {
			if t.CodigoImpuesto == model.IGVSchemeID {
				sum = sum.Add(t.Monto)
			}
		}
		doc.TotalIGV = sum
	}

	return &model.MappedDocument{Document: doc, Lines: lines, Taxes: taxes}, nums.notes
}

// SplitSerieNumero splits a composite document identifier on the first
// "-", trimming whitespace around every segment. An identifier without a
// separator becomes both serie and numero.
func SplitSerieNumero(id string) (serie, numero string) {
	if id == "" {
		return "", ""
	}
	parts := strings.Split(id, "-")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	serie = parts[0]
	numero = strings.Join(parts[1:], "-")
	if numero == "" {
		numero = serie
	}
	return serie, numero
}

func documentType(kind model.Kind, node *Node) string {
	switch kind {
	case model.KindCreditNote:
		return model.DocTypeNotaCredito
	case model.KindDebitNote:
		return model.DocTypeNotaDebito
	default:
		if t, ok := TextValue(node.Get("InvoiceTypeCode")); ok {
			return t
		}
		return model.DocTypeFactura
	}
}

func currency(node *Node) string {
	code, ok := TextValue(node.Get("DocumentCurrencyCode"))
	if !ok {
		return model.DefaultCurrency
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return model.DefaultCurrency
	}
	return code
}

func supplierParty(node *Node) *Node {
	if p := node.At("AccountingSupplierParty", "Party"); !p.IsAbsent() {
		return p
	}
	return node.At("SupplierParty", "Party")
}

func customerParty(node *Node) *Node {
	if p := node.At("AccountingCustomerParty", "Party"); !p.IsAbsent() {
		return p
	}
	return node.At("CustomerParty", "Party")
}

// partyIdentity reads the first PartyIdentification entry's scheme code
// and value.
func partyIdentity(party *Node) (docType, docNumber string) {
	pid := first(party.Get("PartyIdentification"))
	if pid.IsAbsent() {
		return "", ""
	}
	if v, ok := TextValue(pid.Get("ID")); ok {
		docNumber = v
	} else if v, ok := TextValue(pid); ok {
		docNumber = v
	}
	if t, ok := TextValue(pid.At("ID", "schemeID")); ok {
		docType = t
	} else if t, ok := TextValue(pid.Get("schemeID")); ok {
		docType = t
	}
	return docType, docNumber
}

func partyName(party *Node) string {
	for _, probe := range partyNameChain {
		if v, ok := TextValue(probe(party)); ok {
			return v
		}
	}
	return ""
}

func partyAddress(party *Node) string {
	addr := first(party.Get("PostalAddress"))
	if addr.IsAbsent() {
		return ""
	}
	var parts []string
	for _, probe := range addressParts {
		if v, ok := TextValue(probe(addr)); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// mapIssuer builds the issuer party. The issuer must carry an explicit
// scheme code for its number to count as a RUC.
func mapIssuer(party *Node) model.Party {
	docType, docNumber := partyIdentity(party)
	p := model.Party{
		ID:        uuid.NewString(),
		DocType:   docType,
		DocNumber: docNumber,
		Nombre:    partyName(party),
		Direccion: partyAddress(party),
	}
	if docType == model.PartyDocRUC {
		p.RUC = docNumber
	}
	return p
}

// mapCustomer builds the customer party. When the source omits the
// scheme code it is inferred from the number length: 11 digits is a RUC,
// 8 digits a DNI.
func mapCustomer(party *Node) model.Party {
	docType, docNumber := partyIdentity(party)
	if docType == "" {
		switch len(docNumber) {
		case 11:
			docType = model.PartyDocRUC
		case 8:
			docType = model.PartyDocDNI
		}
	}
	p := model.Party{
		ID:        uuid.NewString(),
		DocType:   docType,
		DocNumber: docNumber,
		Nombre:    partyName(party),
		Direccion: partyAddress(party),
	}
	if docType == model.PartyDocRUC {
		p.RUC = docNumber
	}
	return p
}

func readLegends(note *Node) []model.Legend {
	var legends []model.Legend
	for _, n := range ArrayOf(note) {
		code, _ := TextValue(n.Get("languageLocaleID"))
		value, ok := TextValue(n.Get(textKey))
		if !ok {
			value, _ = TextValue(n)
		}
		if code != "" && value != "" {
			legends = append(legends, model.Legend{Code: code, Value: value})
		}
	}
	return legends
}

// readPayment scans PaymentMeans and all PaymentTerms entries. An entry
// identified as FormaPago contributes the Contado/Credito form; one
// identified as Detraccion contributes the withholding record, whose
// account number lives on the payment-means substructure.
func readPayment(node *Node, nums *numbers) *model.Payment {
	means := first(node.Get("PaymentMeans"))
	meansCode, _ := TextValue(means.Get("PaymentMeansCode"))
	account, _ := TextValue(means.At("PayeeFinancialAccount", "ID"))

	var form model.PaymentForm
	var detraction *model.Detraction

	for _, pt := range ArrayOf(node.Get("PaymentTerms")) {
		id, _ := TextValue(pt.Get("ID"))
		switch id {
		case "FormaPago":
			fp, _ := TextValue(pt.Get("PaymentMeansID"))
			if fp == string(model.PaymentContado) || fp == string(model.PaymentCredito) {
				form = model.PaymentForm(fp)
			}
		case "Detraccion":
			code, _ := TextValue(pt.Get("PaymentMeansID"))
			detraction = &model.Detraction{
				Code:    code,
				Percent: nums.read(pt.Get("PaymentPercent"), money.TotalPlaces, "PaymentTerms.PaymentPercent"),
				Amount:  nums.read(pt.Get("Amount"), money.TotalPlaces, "PaymentTerms.Amount"),
				Account: account,
			}
		}
	}

	if meansCode == "" && form == "" && detraction == nil {
		return nil
	}
	return &model.Payment{MeansCode: meansCode, FormaPago: form, Detraction: detraction}
}
