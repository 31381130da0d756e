package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the UBL root variant of a source document.
type Kind string

const (
	KindInvoice    Kind = "Invoice"
	KindCreditNote Kind = "CreditNote"
	KindDebitNote  Kind = "DebitNote"
)

// SUNAT document type codes (catalog 01).
const (
	DocTypeFactura     = "01"
	DocTypeBoleta      = "03"
	DocTypeNotaCredito = "07"
	DocTypeNotaDebito  = "08"
)

// SUNAT identity document codes (catalog 06).
const (
	PartyDocDNI = "1"
	PartyDocRUC = "6"
)

// DefaultCurrency is assumed when the document omits or mangles the
// currency code.
const DefaultCurrency = "PEN"

// IGVSchemeID is the tax scheme code for the Peruvian value-added tax.
const IGVSchemeID = "1000"

// PaymentForm is the payment-term form declared on the document.
// SUNAT only defines these two literals; anything else is ignored.
type PaymentForm string

const (
	PaymentContado PaymentForm = "Contado"
	PaymentCredito PaymentForm = "Credito"
)

// Party is an issuer or customer as declared on a document. RUC is set
// only when DocType carries the RUC scheme code; for customers without a
// scheme code it is inferred from the document-number length.
type Party struct {
	ID        string `json:"id"`
	RUC       string `json:"ruc,omitempty"`
	DocType   string `json:"docType,omitempty"`
	DocNumber string `json:"docNumber,omitempty"`
	Nombre    string `json:"nombre,omitempty"`
	Direccion string `json:"direccion,omitempty"`
}

// Detraction is the SUNAT withholding declared on certain invoices.
type Detraction struct {
	Code    string          `json:"code"`
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
	Account string          `json:"account,omitempty"`
}

// Payment groups the payment-means and payment-term data of a document.
type Payment struct {
	MeansCode  string      `json:"meansCode,omitempty"`
	FormaPago  PaymentForm `json:"formaPago,omitempty"`
	Detraction *Detraction `json:"detraction,omitempty"`
}

// Legend is a coded note attached to a document, e.g. the total amount
// spelled out in words (code 1000).
type Legend struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

// Document is the canonical header record produced from one source file.
// Monetary totals carry two fractional digits.
type Document struct {
	ID        string `json:"id"`
	Tipo      string `json:"tipo"`
	Serie     string `json:"serie"`
	Numero    string `json:"numero"`
	Moneda    string `json:"moneda"`
	IssueDate string `json:"issueDate"`
	IssueTime string `json:"issueTime,omitempty"`
	DueDate   string `json:"dueDate,omitempty"`

	Issuer   Party `json:"issuer"`
	Customer Party `json:"customer"`

	Subtotal     decimal.Decimal `json:"subtotal"`
	Descuentos   decimal.Decimal `json:"descuentos"`
	TotalIGV     decimal.Decimal `json:"totalIgv"`
	TaxInclusive decimal.Decimal `json:"taxInclusive"`
	Total        decimal.Decimal `json:"total"`

	Payment *Payment `json:"payment,omitempty"`
	Legends []Legend `json:"legends,omitempty"`

	Hash        string `json:"hash"`
	StorageName string `json:"storageName,omitempty"`
}

// BusinessKey returns the {tipo, serie, numero} triple used together with
// the issuer RUC as the secondary duplicate signal.
func (d *Document) BusinessKey() (tipo, serie, numero string) {
	return d.Tipo, d.Serie, d.Numero
}

// LineItem is one reconciled document line. Quantity, prices and line
// value carry six fractional digits; the IGV amount carries two.
type LineItem struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	LineNumber int    `json:"lineNumber"`

	Descripcion string `json:"descripcion"`
	Unidad      string `json:"unidad,omitempty"`
	Codigo      string `json:"codigo,omitempty"`

	Cantidad          decimal.Decimal  `json:"cantidad"`
	PrecioUnitario    decimal.Decimal  `json:"precioUnitario"`
	PrecioReferencial *decimal.Decimal `json:"precioReferencial,omitempty"`
	ValorLinea        decimal.Decimal  `json:"valorLinea"`

	IGVMonto            decimal.Decimal  `json:"igvMonto"`
	IGVPorcentaje       *decimal.Decimal `json:"igvPorcentaje,omitempty"`
	IGVAfectacionCodigo string           `json:"igvAfectacionCodigo,omitempty"`
}

// TaxLine is one document-level tax breakdown entry, one per distinct
// tax scheme under the document's TaxTotal.
type TaxLine struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`

	CodigoImpuesto string           `json:"codigoImpuesto"`
	Base           decimal.Decimal  `json:"base"`
	Porcentaje     *decimal.Decimal `json:"porcentaje,omitempty"`
	Monto          decimal.Decimal  `json:"monto"`
	Afectacion     string           `json:"afectacion,omitempty"`
}

// MappedDocument bundles everything produced from one source file. The
// records are immutable value objects; the resolver either persists the
// whole bundle or rejects it.
type MappedDocument struct {
	Document Document   `json:"document"`
	Lines    []LineItem `json:"lines"`
	Taxes    []TaxLine  `json:"taxes"`
}

// IngestErrorRecord is one entry in the errors keyspace: a file that was
// mapped but could not be persisted, or failed parsing altogether.
type IngestErrorRecord struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Code      string    `json:"code"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}
