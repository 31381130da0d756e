package ingest_test

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/ubl-ingest/internal/ingest"
	"github.com/rezonia/ubl-ingest/internal/model"
)

const simpleInvoice = `<Invoice>
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

func testWorker() *ingest.Worker {
	return ingest.NewWorker(zerolog.Nop())
}

func zipOf(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestWorker_Process(t *testing.T) {
	batch := testWorker().Process(context.Background(), []ingest.FilePayload{
		{Name: "f001-100.xml", Data: []byte(simpleInvoice)},
	})

	require.Len(t, batch.Documents, 1)
	assert.Empty(t, batch.Errors)

	doc := batch.Documents[0].Document
	assert.Equal(t, "F001", doc.Serie)
	assert.Equal(t, "100", doc.Numero)
	assert.Equal(t, "f001-100.xml", doc.StorageName)
	assert.NotEmpty(t, doc.Hash)
	assert.Len(t, doc.Hash, 64)
}

func TestWorker_Process_MalformedFile(t *testing.T) {
	batch := testWorker().Process(context.Background(), []ingest.FilePayload{
		{Name: "roto.xml", Data: []byte(`<Invoice><ID>unclosed`)},
	})

	assert.Empty(t, batch.Documents)
	require.Len(t, batch.Errors, 1)
	assert.Equal(t, "roto.xml", batch.Errors[0].Filename)
	assert.Equal(t, model.ErrCodeParse, batch.Errors[0].Code)
}

func TestWorker_Process_UnsupportedRoot(t *testing.T) {
	batch := testWorker().Process(context.Background(), []ingest.FilePayload{
		{Name: "guia.xml", Data: []byte(`<DespatchAdvice><ID>T001-1</ID></DespatchAdvice>`)},
	})

	require.Len(t, batch.Errors, 1)
	assert.Equal(t, model.ErrCodeUnsupported, batch.Errors[0].Code)
}

func TestWorker_Process_OneBadFileDoesNotAbortBatch(t *testing.T) {
	batch := testWorker().Process(context.Background(), []ingest.FilePayload{
		{Name: "roto.xml", Data: []byte(`not xml at all`)},
		{Name: "bueno.xml", Data: []byte(simpleInvoice)},
	})

	assert.Len(t, batch.Documents, 1)
	assert.Len(t, batch.Errors, 1)
}

func TestWorker_Process_ZipExpansion(t *testing.T) {
	archive := zipOf(t, map[string]string{
		"lote/f001-100.xml": simpleInvoice,
		"lote/readme.txt":   "no soy xml",
	})

	batch := testWorker().Process(context.Background(), []ingest.FilePayload{
		{Name: "lote.zip", Data: archive},
	})

	require.Len(t, batch.Documents, 1)
	assert.Empty(t, batch.Errors)
	assert.Equal(t, "lote/f001-100.xml", batch.Documents[0].Document.StorageName)
}

func TestWorker_Process_CorruptZip(t *testing.T) {
	batch := testWorker().Process(context.Background(), []ingest.FilePayload{
		{Name: "roto.zip", Data: []byte("definitely not a zip")},
	})

	require.Len(t, batch.Errors, 1)
	assert.Equal(t, "roto.zip", batch.Errors[0].Filename)
	assert.Equal(t, model.ErrCodeParse, batch.Errors[0].Code)
}

func TestWorker_Process_RecoveryNotes(t *testing.T) {
	content := `<Invoice><ID>F001-1</ID>
		<LegalMonetaryTotal><PayableAmount>S/118.00</PayableAmount></LegalMonetaryTotal>
	</Invoice>`

	batch := testWorker().Process(context.Background(), []ingest.FilePayload{
		{Name: "raro.xml", Data: []byte(content)},
	})

	require.Len(t, batch.Documents, 1)
	require.Len(t, batch.Recoveries, 1)
	assert.Equal(t, "raro.xml", batch.Recoveries[0].Filename)
	assert.Equal(t, "LegalMonetaryTotal.PayableAmount", batch.Recoveries[0].Field)
	assert.True(t, batch.Documents[0].Document.Total.IsZero())
}

func TestWorker_Process_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := testWorker().Process(ctx, []ingest.FilePayload{
		{Name: "f.xml", Data: []byte(simpleInvoice)},
	})
	assert.Empty(t, batch.Documents)
}

func TestWorker_Go(t *testing.T) {
	ch := testWorker().Go(context.Background(), []ingest.FilePayload{
		{Name: "f.xml", Data: []byte(simpleInvoice)},
	})

	batch := <-ch
	require.NotNil(t, batch)
	assert.Len(t, batch.Documents, 1)

	// Channel closes after the single response
	_, open := <-ch
	assert.False(t, open)
}

func TestWorker_Process_IdenticalContentSameHash(t *testing.T) {
	batch := testWorker().Process(context.Background(), []ingest.FilePayload{
		{Name: "a.xml", Data: []byte(simpleInvoice)},
		{Name: "b.xml", Data: []byte(simpleInvoice)},
	})

	require.Len(t, batch.Documents, 2)
	assert.Equal(t, batch.Documents[0].Document.Hash, batch.Documents[1].Document.Hash)
	assert.NotEqual(t, batch.Documents[0].Document.ID, batch.Documents[1].Document.ID)
}
