// Package server exposes ingestion and document queries over HTTP.
package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rezonia/ubl-ingest/internal/catalog"
	"github.com/rezonia/ubl-ingest/internal/ingest"
	"github.com/rezonia/ubl-ingest/internal/store"
)

// Config holds server configuration
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server is the HTTP API: uploads go through the worker/resolver pair,
// reads go straight to the store.
type Server struct {
	config   *Config
	router   *gin.Engine
	worker   *ingest.Worker
	resolver *ingest.Resolver
	store    store.Store
	log      zerolog.Logger
}

// NewServer wires the API around an explicit store handle.
func NewServer(config *Config, st store.Store, log zerolog.Logger) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config:   config,
		router:   router,
		worker:   ingest.NewWorker(log),
		resolver: ingest.NewResolver(st, log),
		store:    st,
		log:      log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/ingest", s.handleIngest)
		v1.POST("/inspect", s.handleInspect)

		v1.GET("/documents", s.handleListDocuments)
		v1.GET("/documents/:id", s.handleGetDocument)

		v1.GET("/errors", s.handleListErrors)
		v1.GET("/stats", s.handleStats)

		v1.GET("/catalogs", s.handleListCatalogs)
		v1.GET("/catalogs/:name", s.handleGetCatalog)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleIngest accepts a multipart batch under the "files" field, maps
// it off-request on the worker and persists the result as one batch.
func (s *Server) handleIngest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form"})
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	payloads := make([]ingest.FilePayload, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + fh.Filename})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + fh.Filename})
			return
		}
		payloads = append(payloads, ingest.FilePayload{Name: fh.Filename, Data: data})
	}

	ctx := c.Request.Context()
	var batch *ingest.BatchResult
	select {
	case batch = <-s.worker.Go(ctx, payloads):
	case <-ctx.Done():
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "request cancelled"})
		return
	}

	summary, err := s.resolver.SaveBatch(ctx, batch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, IngestResponse{
		Summary:    summary,
		Errors:     batch.Errors,
		Recoveries: batch.Recoveries,
	})
}

// handleInspect maps a raw XML body and returns the canonical document
// without persisting anything.
func (s *Server) handleInspect(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}

	batch := s.worker.Process(c.Request.Context(), []ingest.FilePayload{{Name: "inspect.xml", Data: body}})
	if len(batch.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": batch.Errors[0].Detail, "code": batch.Errors[0].Code})
		return
	}

	c.JSON(http.StatusOK, InspectResponse{
		Document:   batch.Documents[0],
		Recoveries: batch.Recoveries,
	})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	filter := store.DocumentFilter{
		IssuerRUC:      c.Query("issuerRuc"),
		CustomerDocNum: c.Query("customerDoc"),
		DateFrom:       c.Query("from"),
		DateTo:         c.Query("to"),
		Limit:          100,
	}
	docs, err := s.store.Stores().Documents.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, DocumentListResponse{Documents: docs, Count: len(docs)})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	ctx := c.Request.Context()
	stores := s.store.Stores()

	doc, err := stores.Documents.GetByID(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	lines, err := stores.Lines.ListByDocument(ctx, doc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	taxes, err := stores.Taxes.ListByDocument(ctx, doc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, DocumentResponse{Document: *doc, Lines: lines, Taxes: taxes})
}

func (s *Server) handleListErrors(c *gin.Context) {
	recs, err := s.store.Stores().Errors.List(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": recs, "count": len(recs)})
}

func (s *Server) handleStats(c *gin.Context) {
	count, err := s.store.Stores().Documents.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": count})
}

func (s *Server) handleListCatalogs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"catalogs": catalog.Names()})
}

func (s *Server) handleGetCatalog(c *gin.Context) {
	entries, err := catalog.Lookup(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
