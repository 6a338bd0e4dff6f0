package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/schle1cherr/docrag/internal/ai"
	"github.com/schle1cherr/docrag/internal/docsource"
	"github.com/schle1cherr/docrag/internal/extract"
	"github.com/schle1cherr/docrag/internal/model"
	"github.com/schle1cherr/docrag/internal/repo"
)

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Files   int `json:"files"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Removed int `json:"removed"`
	Chunks  int `json:"chunks"`
}

// IngestService turns the documents of a source into indexed chunks. A file
// that fails to extract is logged and skipped; the batch always continues.
type IngestService struct {
	source   docsource.Source
	chunks   *repo.ChunkRepo
	files    *repo.FileStateRepo
	embedder ai.IEmbedder
	embedDim int
}

func NewIngestService(source docsource.Source, chunks *repo.ChunkRepo, files *repo.FileStateRepo, embedder ai.IEmbedder, embedDim int) *IngestService {
	return &IngestService{source: source, chunks: chunks, files: files, embedder: embedder, embedDim: embedDim}
}

func (s *IngestService) Run(ctx context.Context) (*IngestReport, error) {
	logger := logutil.GetLogger(ctx)
	infos, err := s.source.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &IngestReport{}
	present := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		present[info.Name] = struct{}{}
		report.Files++
		count, err := s.ingestFile(ctx, info)
		if err != nil {
			report.Failed++
			logger.Error("ingest file failed", zap.String("file", info.Name), zap.Error(err))
			continue
		}
		if count < 0 {
			report.Skipped++
			continue
		}
		if count == 0 {
			logger.Warn("no content extracted", zap.String("file", info.Name))
		}
		report.Chunks += count
	}

	removed, err := s.removeMissing(ctx, present)
	if err != nil {
		logger.Error("cleanup of removed files failed", zap.Error(err))
	}
	report.Removed = removed

	logger.Info("ingest finished",
		zap.Int("files", report.Files),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("removed", report.Removed),
		zap.Int("chunks", report.Chunks),
	)
	return report, nil
}

// ingestFile returns the number of chunks stored, or -1 when the file was
// unchanged and skipped.
func (s *IngestService) ingestFile(ctx context.Context, info docsource.FileInfo) (int, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("file", info.Name))

	path, cleanup, err := s.source.Fetch(ctx, info.Name)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	hash, err := fileHash(path)
	if err != nil {
		return 0, err
	}
	state, err := s.files.Get(ctx, info.Name)
	if err != nil {
		return 0, err
	}
	if state != nil && state.ContentHash == hash {
		logger.Debug("file unchanged, skipping")
		return -1, nil
	}

	chunks, err := extract.File(ctx, path, info.Name)
	if err != nil {
		return 0, err
	}

	records := make([]repo.ChunkRecord, 0, len(chunks))
	for _, chunk := range chunks {
		records = append(records, repo.ChunkRecord{
			Chunk:     chunk,
			Embedding: s.embed(ctx, chunk),
		})
	}
	if err := s.chunks.ReplaceSource(ctx, info.Name, records); err != nil {
		return 0, err
	}
	if err := s.files.Save(ctx, &repo.FileState{
		Source:      info.Name,
		ContentHash: hash,
		ChunkCount:  len(chunks),
		Mtime:       time.Now().UnixMilli(),
	}); err != nil {
		return 0, err
	}
	logger.Info("file ingested", zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// embed returns nil when no embedder is configured, the call fails, or the
// model produces a vector of the wrong dimension; the chunk then stays
// reachable through the lexical index only.
func (s *IngestService) embed(ctx context.Context, chunk model.Chunk) []float32 {
	if s.embedder == nil {
		return nil
	}
	embedding, err := s.embedder.Embed(ctx, chunk.Content, "RETRIEVAL_DOCUMENT")
	if err != nil {
		logutil.GetLogger(ctx).Warn("chunk embedding failed",
			zap.String("file", chunk.Source),
			zap.Int("position", chunk.Position),
			zap.Error(err),
		)
		return nil
	}
	if len(embedding) != s.embedDim {
		logutil.GetLogger(ctx).Warn("embedding dimension mismatch, storing chunk lexical-only",
			zap.String("file", chunk.Source),
			zap.String("model", s.embedder.ModelName()),
			zap.Int("got", len(embedding)),
			zap.Int("want", s.embedDim),
		)
		return nil
	}
	return embedding
}

func (s *IngestService) removeMissing(ctx context.Context, present map[string]struct{}) (int, error) {
	states, err := s.files.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, state := range states {
		if _, ok := present[state.Source]; ok {
			continue
		}
		if err := s.chunks.DeleteSource(ctx, state.Source); err != nil {
			return removed, err
		}
		if err := s.files.Delete(ctx, state.Source); err != nil {
			return removed, err
		}
		logutil.GetLogger(ctx).Info("removed chunks of deleted file", zap.String("file", state.Source))
		removed++
	}
	return removed, nil
}

// Preview lists stored chunks in reading order, for inspecting extraction
// quality.
func (s *IngestService) Preview(ctx context.Context, limit uint) ([]model.Chunk, int64, error) {
	chunks, err := s.chunks.List(ctx, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.chunks.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return chunks, total, nil
}

func fileHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
