package xml_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/ubl-ingest/internal/model"
)

func mapSingleLine(t *testing.T, lineBody string) model.LineItem {
	t.Helper()
	content := `<Invoice><ID>F001-1</ID><InvoiceLine>` + lineBody + `</InvoiceLine></Invoice>`
	mapped, _ := mapSample(t, content)
	require.Len(t, mapped.Lines, 1)
	return mapped.Lines[0]
}

func TestMapLine_UnitPriceFromReferentialPrice(t *testing.T) {
	// Only the tax-inclusive price and the tax percent are present; the
	// unit price and line value must be reconstructed.
	line := mapSingleLine(t, `
		<InvoicedQuantity unitCode="NIU">10</InvoicedQuantity>
		<PricingReference>
			<AlternativeConditionPrice>
				<PriceAmount>11.80</PriceAmount>
				<PriceTypeCode>01</PriceTypeCode>
			</AlternativeConditionPrice>
		</PricingReference>
		<TaxTotal>
			<TaxSubtotal>
				<TaxAmount>18.00</TaxAmount>
				<TaxCategory>
					<Percent>18</Percent>
					<TaxScheme><ID>1000</ID></TaxScheme>
				</TaxCategory>
			</TaxSubtotal>
		</TaxTotal>
		<Item><Description>CEMENTO</Description></Item>`)

	assert.True(t, line.PrecioUnitario.Equal(decimal.NewFromInt(10)),
		"precio unitario: got %s", line.PrecioUnitario)
	assert.True(t, line.ValorLinea.Equal(decimal.NewFromInt(100)),
		"valor linea: got %s", line.ValorLinea)
}

func TestMapLine_LineValueFromQuantityTimesPrice(t *testing.T) {
	line := mapSingleLine(t, `
		<InvoicedQuantity>3</InvoicedQuantity>
		<Item><Description>TORNILLOS</Description></Item>
		<Price><PriceAmount>2.50</PriceAmount></Price>`)

	assert.True(t, line.ValorLinea.Equal(decimal.RequireFromString("7.5")),
		"got %s", line.ValorLinea)
}

func TestMapLine_UnitPriceFromLineValue(t *testing.T) {
	line := mapSingleLine(t, `
		<InvoicedQuantity>4</InvoicedQuantity>
		<LineExtensionAmount>10.00</LineExtensionAmount>
		<Item><Description>CLAVOS</Description></Item>`)

	assert.True(t, line.PrecioUnitario.Equal(decimal.RequireFromString("2.5")),
		"got %s", line.PrecioUnitario)
}

func TestMapLine_LineValueFallsBackToTaxableBase(t *testing.T) {
	line := mapSingleLine(t, `
		<InvoicedQuantity>1</InvoicedQuantity>
		<TaxTotal>
			<TaxSubtotal>
				<TaxableAmount>80.00</TaxableAmount>
				<TaxAmount>14.40</TaxAmount>
				<TaxCategory><TaxScheme><ID>1000</ID></TaxScheme></TaxCategory>
			</TaxSubtotal>
		</TaxTotal>
		<Item><Description>SERVICIO</Description></Item>`)

	assert.True(t, line.ValorLinea.Equal(decimal.RequireFromString("80")),
		"got %s", line.ValorLinea)
	assert.True(t, line.IGVMonto.Equal(decimal.RequireFromString("14.4")))
}

func TestMapLine_ZeroQuantityDerivesNothing(t *testing.T) {
	line := mapSingleLine(t, `
		<PricingReference>
			<AlternativeConditionPrice>
				<PriceAmount>11.80</PriceAmount>
				<PriceTypeCode>01</PriceTypeCode>
			</AlternativeConditionPrice>
		</PricingReference>
		<TaxTotal>
			<TaxSubtotal>
				<TaxCategory>
					<Percent>18</Percent>
					<TaxScheme><ID>1000</ID></TaxScheme>
				</TaxCategory>
			</TaxSubtotal>
		</TaxTotal>
		<Item><Description>SIN CANTIDAD</Description></Item>`)

	// Unit price still derives from the referential price, but with no
	// quantity the line value stays zero.
	assert.True(t, line.PrecioUnitario.Equal(decimal.NewFromInt(10)))
	assert.True(t, line.ValorLinea.IsZero())
}

func TestMapLine_TaxSubtotalDirectlyOnLine(t *testing.T) {
	line := mapSingleLine(t, `
		<InvoicedQuantity>1</InvoicedQuantity>
		<LineExtensionAmount>100.00</LineExtensionAmount>
		<TaxSubtotal>
			<TaxableAmount>100.00</TaxableAmount>
			<TaxAmount>18.00</TaxAmount>
			<TaxCategory>
				<Percent>18</Percent>
				<TaxScheme><ID>1000</ID></TaxScheme>
			</TaxCategory>
		</TaxSubtotal>
		<Item><Description>DIRECTO</Description></Item>`)

	assert.True(t, line.IGVMonto.Equal(decimal.NewFromInt(18)))
	require.NotNil(t, line.IGVPorcentaje)
	assert.True(t, line.IGVPorcentaje.Equal(decimal.NewFromInt(18)))
}

func TestMapLine_NonIGVSubtotalIgnored(t *testing.T) {
	line := mapSingleLine(t, `
		<InvoicedQuantity>1</InvoicedQuantity>
		<LineExtensionAmount>100.00</LineExtensionAmount>
		<TaxTotal>
			<TaxSubtotal>
				<TaxAmount>2.00</TaxAmount>
				<TaxCategory><TaxScheme><ID>2000</ID></TaxScheme></TaxCategory>
			</TaxSubtotal>
		</TaxTotal>
		<Item><Description>ISC SOLO</Description></Item>`)

	assert.True(t, line.IGVMonto.IsZero())
	assert.Nil(t, line.IGVPorcentaje)
}

func TestMapLine_UnitCodeFallbacks(t *testing.T) {
	withAttr := mapSingleLine(t, `
		<InvoicedQuantity unitCode="KGM">5</InvoicedQuantity>
		<Item><Description>A</Description></Item>`)
	assert.Equal(t, "KGM", withAttr.Unidad)

	sibling := mapSingleLine(t, `
		<InvoicedQuantity>5</InvoicedQuantity>
		<InvoicedQuantityUnitCode>NIU</InvoicedQuantityUnitCode>
		<Item><Description>B</Description></Item>`)
	assert.Equal(t, "NIU", sibling.Unidad)
}

func TestMapLine_LineNumbering(t *testing.T) {
	content := `<Invoice><ID>F001-1</ID>
		<InvoiceLine>
			<ID>7</ID>
			<InvoicedQuantity>1</InvoicedQuantity>
			<Item><Description>EXPLICITO</Description></Item>
		</InvoiceLine>
		<InvoiceLine>
			<ID>no-numerico</ID>
			<InvoicedQuantity>1</InvoicedQuantity>
			<Item><Description>POSICIONAL</Description></Item>
		</InvoiceLine>
	</Invoice>`

	mapped, _ := mapSample(t, content)
	require.Len(t, mapped.Lines, 2)
	assert.Equal(t, 7, mapped.Lines[0].LineNumber)
	assert.Equal(t, 2, mapped.Lines[1].LineNumber)
}

func TestMapLine_DescriptionFallbacks(t *testing.T) {
	fromName := mapSingleLine(t, `
		<InvoicedQuantity>1</InvoicedQuantity>
		<Item><Name>NOMBRE CORTO</Name></Item>`)
	assert.Equal(t, "NOMBRE CORTO", fromName.Descripcion)

	bare := mapSingleLine(t, `
		<InvoicedQuantity>1</InvoicedQuantity>
		<Description>SUELTA</Description>`)
	assert.Equal(t, "SUELTA", bare.Descripcion)
}
