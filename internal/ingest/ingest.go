// Package ingest populates the per-category vector indexes from JSON record
// files. It runs offline, before the service starts serving; indexes are
// read-only at request time.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/atlas-cloud/tripdex/internal/domain"
	"github.com/atlas-cloud/tripdex/internal/retriever"
)

// EmbedBatchSize bounds the number of texts sent to the embedding provider in
// one call.
const EmbedBatchSize = 64

// Ingestor loads category record files, embeds their searchable text, and
// writes the result through the coordinator's retrievers.
type Ingestor struct {
	coord  *retriever.Coordinator
	embed  domain.Embedder
	logger *zap.Logger
}

// New creates an ingestor writing through the given coordinator.
func New(coord *retriever.Coordinator, embed domain.Embedder, logger *zap.Logger) *Ingestor {
	return &Ingestor{coord: coord, embed: embed, logger: logger}
}

// Run ingests every category whose record file exists under dataRoot. Files
// are named <source>.json. A missing file skips the category with a log line;
// a malformed file fails the run.
func (in *Ingestor) Run(ctx context.Context, dataRoot string) error {
	type step struct {
		source domain.Source
		ingest func(context.Context, string) (int, error)
	}
	steps := []step{
		{domain.SourceAttractions, in.IngestAttractions},
		{domain.SourceFood, in.IngestFood},
		{domain.SourceTips, in.IngestTips},
		{domain.SourceItineraries, in.IngestItineraries},
	}

	for _, s := range steps {
		path := fmt.Sprintf("%s/%s.json", strings.TrimRight(dataRoot, "/"), s.source)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			in.logger.Warn("Record file not found, skipping category",
				zap.String("source", string(s.source)),
				zap.String("path", path),
			)
			continue
		}

		count, err := s.ingest(ctx, path)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", s.source, err)
		}
		in.logger.Info("Ingested category",
			zap.String("source", string(s.source)),
			zap.Int("documents", count),
		)
	}

	return nil
}

// IngestAttractions loads attraction records and indexes them. Returns the
// number of documents ingested.
func (in *Ingestor) IngestAttractions(ctx context.Context, path string) (int, error) {
	var records []AttractionRecord
	if err := loadRecords(path, &records); err != nil {
		return 0, err
	}

	texts := make([]string, len(records))
	metadatas := make([]domain.Metadata, len(records))
	for i, rec := range records {
		texts[i] = rec.SearchText()
		metadatas[i] = rec.Metadata()
	}

	return len(records), in.index(ctx, domain.SourceAttractions, texts, metadatas)
}

// IngestFood loads food-place records and indexes them.
func (in *Ingestor) IngestFood(ctx context.Context, path string) (int, error) {
	var records []FoodRecord
	if err := loadRecords(path, &records); err != nil {
		return 0, err
	}

	texts := make([]string, len(records))
	metadatas := make([]domain.Metadata, len(records))
	for i, rec := range records {
		texts[i] = rec.SearchText()
		metadatas[i] = rec.Metadata()
	}

	return len(records), in.index(ctx, domain.SourceFood, texts, metadatas)
}

// IngestTips loads local-tip records and indexes them.
func (in *Ingestor) IngestTips(ctx context.Context, path string) (int, error) {
	var records []TipRecord
	if err := loadRecords(path, &records); err != nil {
		return 0, err
	}

	texts := make([]string, len(records))
	metadatas := make([]domain.Metadata, len(records))
	for i, rec := range records {
		texts[i] = rec.SearchText()
		metadatas[i] = rec.Metadata()
	}

	return len(records), in.index(ctx, domain.SourceTips, texts, metadatas)
}

// IngestItineraries loads past-itinerary records and indexes them.
func (in *Ingestor) IngestItineraries(ctx context.Context, path string) (int, error) {
	var records []ItineraryRecord
	if err := loadRecords(path, &records); err != nil {
		return 0, err
	}

	texts := make([]string, len(records))
	metadatas := make([]domain.Metadata, len(records))
	for i, rec := range records {
		texts[i] = rec.SearchText()
		metadatas[i] = rec.Metadata()
	}

	return len(records), in.index(ctx, domain.SourceItineraries, texts, metadatas)
}

// index embeds the texts in batches, appends them to the source's index, and
// persists it.
func (in *Ingestor) index(ctx context.Context, source domain.Source, texts []string, metadatas []domain.Metadata) error {
	if len(texts) == 0 {
		return nil
	}

	r, err := in.coord.Retriever(source)
	if err != nil {
		return err
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += EmbedBatchSize {
		end := start + EmbedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		results, err := in.embed.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		for _, res := range results {
			vectors = append(vectors, res.Embedding)
		}
	}

	if err := r.Add(texts, vectors, metadatas); err != nil {
		return err
	}
	return r.Save()
}

func loadRecords(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
