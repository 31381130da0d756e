package ingest_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/ubl-ingest/internal/ingest"
	"github.com/rezonia/ubl-ingest/internal/model"
	"github.com/rezonia/ubl-ingest/internal/store/memory"
)

func testDoc(id, hash, serie, numero, issuerRUC string) model.MappedDocument {
	doc := model.Document{
		ID:        id,
		Tipo:      model.DocTypeFactura,
		Serie:     serie,
		Numero:    numero,
		Moneda:    model.DefaultCurrency,
		IssueDate: "2026-08-15",
		Issuer: model.Party{
			ID:        id + "-issuer",
			RUC:       issuerRUC,
			DocType:   model.PartyDocRUC,
			DocNumber: issuerRUC,
			Nombre:    "EMISOR SAC",
		},
		Customer: model.Party{
			ID:        id + "-customer",
			DocType:   model.PartyDocDNI,
			DocNumber: "12345678",
			Nombre:    "CLIENTE",
		},
		Total:       decimal.RequireFromString("118.00"),
		Hash:        hash,
		StorageName: serie + "-" + numero + ".xml",
	}
	return model.MappedDocument{
		Document: doc,
		Lines: []model.LineItem{{
			ID:         id + "-l1",
			DocumentID: id,
			LineNumber: 1,
			Cantidad:   decimal.NewFromInt(1),
		}},
		Taxes: []model.TaxLine{{
			ID:             id + "-t1",
			DocumentID:     id,
			CodigoImpuesto: model.IGVSchemeID,
			Monto:          decimal.RequireFromString("18.00"),
		}},
	}
}

func saveOne(t *testing.T, st *memory.Store, item model.MappedDocument) ingest.Summary {
	t.Helper()
	r := ingest.NewResolver(st, zerolog.Nop())
	summary, err := r.SaveBatch(context.Background(), &ingest.BatchResult{
		Documents: []model.MappedDocument{item},
	})
	require.NoError(t, err)
	return summary
}

func TestResolver_InsertsDocumentWithLinesAndTaxes(t *testing.T) {
	st := memory.New()
	summary := saveOne(t, st, testDoc("d1", "hash-1", "F001", "100", "20123456789"))

	assert.Equal(t, 1, summary.Queued)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 0, summary.Errors)

	ctx := context.Background()
	doc, err := st.Stores().Documents.GetByID(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, doc)

	lines, err := st.Stores().Lines.ListByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	taxes, err := st.Stores().Taxes.ListByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, taxes, 1)
}

func TestResolver_DuplicateByHash(t *testing.T) {
	st := memory.New()
	saveOne(t, st, testDoc("d1", "same-hash", "F001", "100", "20123456789"))

	// Different serie/numero, same content fingerprint
	summary := saveOne(t, st, testDoc("d2", "same-hash", "F001", "999", "20123456789"))
	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 1, summary.Duplicates)

	count, err := st.Stores().Documents.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestResolver_DuplicateByBusinessKey(t *testing.T) {
	st := memory.New()
	saveOne(t, st, testDoc("d1", "hash-1", "F001", "100", "20123456789"))

	// Same {tipo, serie, numero} and same issuer RUC, different content
	summary := saveOne(t, st, testDoc("d2", "hash-2", "F001", "100", "20123456789"))
	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 1, summary.Duplicates)
}

func TestResolver_SameKeyDifferentIssuerIsNotDuplicate(t *testing.T) {
	st := memory.New()
	saveOne(t, st, testDoc("d1", "hash-1", "F001", "100", "20123456789"))

	summary := saveOne(t, st, testDoc("d2", "hash-2", "F001", "100", "20999999999"))
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 0, summary.Duplicates)
}

func TestResolver_MissingRUCNeverMatchesBusinessKey(t *testing.T) {
	st := memory.New()
	saveOne(t, st, testDoc("d1", "hash-1", "F001", "100", ""))

	// Same key, both sides without a RUC: accepted
	summary := saveOne(t, st, testDoc("d2", "hash-2", "F001", "100", ""))
	assert.Equal(t, 1, summary.Inserted)
}

func TestResolver_DuplicateRecordedInErrorLog(t *testing.T) {
	st := memory.New()
	saveOne(t, st, testDoc("d1", "same-hash", "F001", "100", "20123456789"))
	saveOne(t, st, testDoc("d2", "same-hash", "F001", "100", "20123456789"))

	recs, err := st.Stores().Errors.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.ErrCodeDuplicate, recs[0].Code)
	assert.Equal(t, "F001-100.xml", recs[0].Filename)
}

func TestResolver_IssuerMergedNotDuplicated(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	first := testDoc("d1", "hash-1", "F001", "100", "20123456789")
	first.Document.Issuer.Direccion = "AV. AREQUIPA 1234"
	saveOne(t, st, first)

	// Second document from the same issuer, richer name, no address
	second := testDoc("d2", "hash-2", "F001", "101", "20123456789")
	second.Document.Issuer.Nombre = "EMISOR S.A.C."
	second.Document.Issuer.Direccion = ""
	saveOne(t, st, second)

	merged, err := st.Stores().Issuers.GetByRUC(ctx, "20123456789")
	require.NoError(t, err)
	require.NotNil(t, merged)

	// Identity stays with the first record; incoming fields overwrite,
	// absent ones keep the stored value.
	assert.Equal(t, "d1-issuer", merged.ID)
	assert.Equal(t, "EMISOR S.A.C.", merged.Nombre)
	assert.Equal(t, "AV. AREQUIPA 1234", merged.Direccion)
}

func TestResolver_DuplicateStillImprovesMasterData(t *testing.T) {
	st := memory.New()
	saveOne(t, st, testDoc("d1", "same-hash", "F001", "100", "20123456789"))

	dup := testDoc("d2", "same-hash", "F001", "100", "20123456789")
	dup.Document.Issuer.Direccion = "CALLE NUEVA 42"
	saveOne(t, st, dup)

	merged, err := st.Stores().Issuers.GetByRUC(context.Background(), "20123456789")
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.Equal(t, "CALLE NUEVA 42", merged.Direccion)
}

func TestResolver_CustomerMergedByDocPair(t *testing.T) {
	st := memory.New()
	saveOne(t, st, testDoc("d1", "hash-1", "F001", "100", "20123456789"))

	second := testDoc("d2", "hash-2", "F001", "101", "20123456789")
	second.Document.Customer.Nombre = "CLIENTE COMPLETO"
	saveOne(t, st, second)

	merged, err := st.Stores().Customers.GetByDoc(context.Background(), model.PartyDocDNI, "12345678")
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.Equal(t, "d1-customer", merged.ID)
	assert.Equal(t, "CLIENTE COMPLETO", merged.Nombre)
}

func TestResolver_FileErrorsBecomeRecords(t *testing.T) {
	st := memory.New()
	r := ingest.NewResolver(st, zerolog.Nop())

	summary, err := r.SaveBatch(context.Background(), &ingest.BatchResult{
		Errors: []ingest.FileError{
			{Filename: "roto.xml", Code: model.ErrCodeParse, Detail: "malformed XML"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Queued)
	assert.Equal(t, 1, summary.Errors)

	recs, err := st.Stores().Errors.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "roto.xml", recs[0].Filename)
	assert.Equal(t, model.ErrCodeParse, recs[0].Code)
	assert.NotEmpty(t, recs[0].ID)
	assert.False(t, recs[0].CreatedAt.IsZero())
}

func TestResolver_MergedPartyEmbeddedInDocument(t *testing.T) {
	st := memory.New()
	first := testDoc("d1", "hash-1", "F001", "100", "20123456789")
	first.Document.Issuer.Direccion = "AV. AREQUIPA 1234"
	saveOne(t, st, first)

	second := testDoc("d2", "hash-2", "F001", "101", "20123456789")
	second.Document.Issuer.Direccion = ""
	saveOne(t, st, second)

	doc, err := st.Stores().Documents.GetByID(context.Background(), "d2")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "AV. AREQUIPA 1234", doc.Issuer.Direccion)
}
