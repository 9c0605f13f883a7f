package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"gopherai-docchat/internal/model"
	"gopherai-docchat/internal/pkg/pdfextract"
	"gopherai-docchat/internal/rag"
	"gopherai-docchat/internal/vectorstore"
)

// CollectionPrefix marks collections owned by this service. Reconcile never
// touches collections without it.
const CollectionPrefix = "doc_"

const (
	pdfMIME             = "application/pdf"
	compensationTimeout = 10 * time.Second
)

var tracer = otel.Tracer("gopherai-docchat/app")

type IngestConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	EmbeddingBatchSize int
	MaxBytes           int64
}

type IngestResult struct {
	DocumentID     uint   `json:"document_id"`
	Filename       string `json:"filename"`
	CollectionName string `json:"collection_name"`
	ChunkCount     int    `json:"chunk_count"`
	PageCount      int    `json:"page_count"`
}

type ReconcileReport struct {
	DroppedCollections []string `json:"dropped_collections"`
	MissingCollections []uint   `json:"documents_missing_collection"`
}

type DocumentService struct {
	docs     DocumentStore
	vectors  vectorstore.Store
	embedder BatchEmbedder
	archive  FileArchive
	cleanup  CleanupQueue
	cfg      IngestConfig
	log      *zap.Logger

	// collections created by ingestions that have not finished yet
	inflight sync.Map
}

func NewDocumentService(
	docs DocumentStore,
	vectors vectorstore.Store,
	embedder BatchEmbedder,
	archive FileArchive,
	cleanup CleanupQueue,
	cfg IngestConfig,
	log *zap.Logger,
) *DocumentService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 0
	}
	if cfg.EmbeddingBatchSize <= 0 {
		cfg.EmbeddingBatchSize = 10
	}
	return &DocumentService{
		docs:     docs,
		vectors:  vectors,
		embedder: embedder,
		archive:  archive,
		cleanup:  cleanup,
		cfg:      cfg,
		log:      log.Named("documents"),
	}
}

// Ingest indexes a PDF into a fresh collection and records it. The index is
// written first and the record last; if the record cannot be written the
// collection is dropped again, or queued for cleanup when that fails too.
func (s *DocumentService) Ingest(ctx context.Context, data []byte, filename string) (*IngestResult, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "document.pdf"
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if s.cfg.MaxBytes > 0 && int64(len(data)) > s.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrTooLarge, s.cfg.MaxBytes)
	}
	if mt := mimetype.Detect(data); !mt.Is(pdfMIME) {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedFormat, mt.String())
	}

	ctx, span := tracer.Start(ctx, "ingest")
	defer span.End()
	span.SetAttributes(attribute.String("filename", filename), attribute.Int("size", len(data)))

	pages, err := pdfextract.ExtractPages(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	text, err := pdfextract.JoinPages(pages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	chunks := rag.SplitText(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no text chunks", ErrInvalidInput)
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	collection := CollectionPrefix + uuid.NewString()
	s.inflight.Store(collection, struct{}{})
	defer s.inflight.Delete(collection)

	if err := s.writeCollection(ctx, collection, chunks, vectors); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.Put(ctx, collection, pdfMIME, data); err != nil {
			s.log.Warn("archive upload failed", zap.String("collection", collection), zap.Error(err))
		}
	}

	doc := &model.Document{
		Filename:       filename,
		CollectionName: collection,
		ChunkCount:     len(chunks),
		PageCount:      len(pages),
		SizeBytes:      int64(len(data)),
		UploadedAt:     time.Now(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		span.RecordError(err)
		s.compensate(ctx, collection, "document record write failed")
		return nil, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	s.log.Info("document ingested",
		zap.Uint("document_id", doc.ID),
		zap.String("filename", filename),
		zap.String("collection", collection),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
	)
	return &IngestResult{
		DocumentID:     doc.ID,
		Filename:       doc.Filename,
		CollectionName: collection,
		ChunkCount:     doc.ChunkCount,
		PageCount:      doc.PageCount,
	}, nil
}

func (s *DocumentService) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	ctx, span := tracer.Start(ctx, "ingest.embed")
	defer span.End()
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += s.cfg.EmbeddingBatchSize {
		end := i + s.cfg.EmbeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := s.embedder.EmbedBatch(ctx, chunks[i:end])
		if err != nil {
			return nil, fmt.Errorf("%w: embed chunks %d-%d: %w", ErrRetrieval, i, end-1, err)
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(chunks) || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: embedding count mismatch", ErrRetrieval)
	}
	return vectors, nil
}

func (s *DocumentService) writeCollection(ctx context.Context, collection string, chunks []string, vectors [][]float32) error {
	ctx, span := tracer.Start(ctx, "ingest.index")
	defer span.End()

	if err := s.vectors.CreateCollection(ctx, collection, len(vectors[0])); err != nil {
		return fmt.Errorf("%w: create collection: %w", ErrStoreWrite, err)
	}

	points := make([]vectorstore.Point, len(chunks))
	for i := range chunks {
		points[i] = vectorstore.Point{Index: i, Text: chunks[i], Vector: vectors[i]}
	}
	if err := s.vectors.Upsert(ctx, collection, points); err != nil {
		s.compensate(ctx, collection, "chunk upsert failed")
		return fmt.Errorf("%w: upsert chunks: %w", ErrStoreWrite, err)
	}
	return nil
}

// compensate drops a collection whose ingestion failed. It runs detached from
// the request context so a cancelled upload still cleans up.
func (s *DocumentService) compensate(ctx context.Context, collection, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if s.archive != nil {
		if err := s.archive.Remove(ctx, collection); err != nil {
			s.log.Warn("archive remove failed", zap.String("collection", collection), zap.Error(err))
		}
	}

	err := s.vectors.DeleteCollection(ctx, collection)
	if err == nil || errors.Is(err, vectorstore.ErrCollectionNotFound) {
		s.log.Warn("ingestion rolled back", zap.String("collection", collection), zap.String("reason", reason))
		return
	}

	s.log.Error("rollback drop failed", zap.String("collection", collection), zap.Error(err))
	if s.cleanup == nil {
		s.log.Error("dangling collection, no cleanup queue", zap.String("collection", collection))
		return
	}
	event := model.CollectionCleanupEvent{
		CollectionName: collection,
		Reason:         reason,
		CreatedAt:      time.Now(),
	}
	if err := s.cleanup.Publish(ctx, event); err != nil {
		s.log.Error("dangling collection, enqueue cleanup failed", zap.String("collection", collection), zap.Error(err))
	}
}

func (s *DocumentService) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return s.docs.List(ctx)
}

func (s *DocumentService) GetDocument(ctx context.Context, id uint) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %d", ErrNotFound, id)
	}
	return doc, nil
}

// DeleteDocument drops the collection before the record. Sessions bound to
// the document are kept.
func (s *DocumentService) DeleteDocument(ctx context.Context, id uint) error {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if err := s.vectors.DeleteCollection(ctx, doc.CollectionName); err != nil && !errors.Is(err, vectorstore.ErrCollectionNotFound) {
		return fmt.Errorf("%w: drop collection: %w", ErrStoreWrite, err)
	}
	if s.archive != nil {
		if err := s.archive.Remove(ctx, doc.CollectionName); err != nil {
			s.log.Warn("archive remove failed", zap.String("collection", doc.CollectionName), zap.Error(err))
		}
	}
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		s.log.Error("document record left without collection",
			zap.Uint("document_id", doc.ID),
			zap.String("collection", doc.CollectionName),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	s.log.Info("document deleted", zap.Uint("document_id", doc.ID), zap.String("collection", doc.CollectionName))
	return nil
}

// DropOrphanCollection drops collection unless a document references it or an
// ingestion is still writing it. It reports whether anything was dropped.
func (s *DocumentService) DropOrphanCollection(ctx context.Context, collection string) (bool, error) {
	if _, busy := s.inflight.Load(collection); busy {
		return false, nil
	}
	doc, err := s.docs.GetByCollectionName(ctx, collection)
	if err != nil {
		return false, err
	}
	if doc != nil {
		return false, nil
	}

	err = s.vectors.DeleteCollection(ctx, collection)
	if errors.Is(err, vectorstore.ErrCollectionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: drop collection: %w", ErrStoreWrite, err)
	}
	if s.archive != nil {
		if err := s.archive.Remove(ctx, collection); err != nil {
			s.log.Warn("archive remove failed", zap.String("collection", collection), zap.Error(err))
		}
	}
	return true, nil
}

// Reconcile drops managed collections no document references and reports
// documents whose collection is gone.
func (s *DocumentService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	collections, err := s.vectors.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(collections))
	for _, c := range collections {
		existing[c] = struct{}{}
	}
	referenced := make(map[string]struct{}, len(docs))
	report := &ReconcileReport{DroppedCollections: []string{}, MissingCollections: []uint{}}
	for _, d := range docs {
		referenced[d.CollectionName] = struct{}{}
		if _, ok := existing[d.CollectionName]; !ok {
			report.MissingCollections = append(report.MissingCollections, d.ID)
		}
	}

	for _, c := range collections {
		if !strings.HasPrefix(c, CollectionPrefix) {
			continue
		}
		if _, ok := referenced[c]; ok {
			continue
		}
		dropped, err := s.DropOrphanCollection(ctx, c)
		if err != nil {
			return report, err
		}
		if dropped {
			report.DroppedCollections = append(report.DroppedCollections, c)
		}
	}

	s.log.Info("reconcile finished",
		zap.Strings("dropped", report.DroppedCollections),
		zap.Uints("missing", report.MissingCollections),
	)
	return report, nil
}

// Ping checks the vector index backend.
func (s *DocumentService) Ping(ctx context.Context) error {
	return s.vectors.Ping(ctx)
}
