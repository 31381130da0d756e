package ublingest_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/ubl-ingest/internal/store/memory"
	"github.com/rezonia/ubl-ingest/pkg/ublingest"
)

const sampleInvoice = `<Invoice>
	<ID>F001-100</ID>
	<IssueDate>2026-08-15</IssueDate>
	<AccountingSupplierParty><Party>
		<PartyIdentification><ID schemeID="6">20123456789</ID></PartyIdentification>
		<PartyLegalEntity><RegistrationName>EMISOR SAC</RegistrationName></PartyLegalEntity>
	</Party></AccountingSupplierParty>
	<LegalMonetaryTotal><PayableAmount>118.00</PayableAmount></LegalMonetaryTotal>
	<InvoiceLine>
		<ID>1</ID>
		<InvoicedQuantity>1</InvoicedQuantity>
		<LineExtensionAmount>100.00</LineExtensionAmount>
		<Item><Description>PRODUCTO</Description></Item>
	</InvoiceLine>
</Invoice>`

func TestProcessor_ProcessFiles(t *testing.T) {
	proc := ublingest.NewProcessor(memory.New(), zerolog.Nop())

	batch := proc.ProcessFiles(context.Background(), []ublingest.FilePayload{
		{Name: "f.xml", Data: []byte(sampleInvoice)},
	})

	require.Len(t, batch.Documents, 1)
	assert.Equal(t, ublingest.DocTypeFactura, batch.Documents[0].Document.Tipo)
}

func TestProcessor_Ingest(t *testing.T) {
	st := memory.New()
	proc := ublingest.NewProcessor(st, zerolog.Nop())
	ctx := context.Background()

	summary, batch, err := proc.Ingest(ctx, []ublingest.FilePayload{
		{Name: "f.xml", Data: []byte(sampleInvoice)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Len(t, batch.Documents, 1)

	// Second run of the same content is a duplicate
	summary, _, err = proc.Ingest(ctx, []ublingest.FilePayload{
		{Name: "copia.xml", Data: []byte(sampleInvoice)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 1, summary.Duplicates)
}
