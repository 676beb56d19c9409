package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// IndexerConfig tunes the embedding stage of a build.
type IndexerConfig struct {
	// BatchSize is the number of chunks per embedding request.
	BatchSize int

	// Workers is the number of embedding requests in flight.
	Workers int
}

// Indexer builds the evidence index offline: it downloads abstracts,
// chunks them and stores chunk embeddings.
type Indexer struct {
	source           driven.LiteratureSource
	store            driven.EvidenceStore
	pipeline         driven.PostProcessorPipeline
	embeddingService driven.EmbeddingService
	cfg              IndexerConfig
	now              func() time.Time
}

// NewIndexer creates an indexer. The source is optional (can be nil) when
// abstracts are only imported from CSV.
func NewIndexer(
	source driven.LiteratureSource,
	store driven.EvidenceStore,
	pipeline driven.PostProcessorPipeline,
	embeddingService driven.EmbeddingService,
	cfg IndexerConfig,
) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultEmbedBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = domain.DefaultEmbedWorkers
	}
	return &Indexer{
		source:           source,
		store:            store,
		pipeline:         pipeline,
		embeddingService: embeddingService,
		cfg:              cfg,
		now:              time.Now,
	}
}

// Fetch downloads abstracts for each topic. Articles that appear under
// several topics are stored once, tagged with the first topic.
func (ix *Indexer) Fetch(ctx context.Context, topics []string, maxPerTopic int) (int, error) {
	if ix.source == nil {
		return 0, errors.New("literature source not configured")
	}
	if len(topics) == 0 {
		topics = domain.DefaultTopics()
	}
	if maxPerTopic <= 0 {
		maxPerTopic = domain.DefaultMaxPerTopic
	}

	logger.Section("Fetch Abstracts")
	seen := make(map[string]bool)
	total := 0
	for _, topic := range topics {
		ids, err := ix.source.Search(ctx, topic, maxPerTopic)
		if err != nil {
			return total, fmt.Errorf("search %q: %w", topic, err)
		}
		fresh := make([]string, 0, len(ids))
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				fresh = append(fresh, id)
			}
		}
		logger.Info("Topic %q: %d ids, %d new", topic, len(ids), len(fresh))
		if len(fresh) == 0 {
			continue
		}

		abstracts, err := ix.source.FetchAbstracts(ctx, fresh)
		if err != nil {
			return total, fmt.Errorf("fetch %q: %w", topic, err)
		}
		fetchedAt := ix.now().UTC()
		for i := range abstracts {
			abstracts[i].Topic = topic
			abstracts[i].FetchedAt = fetchedAt
		}
		if err := ix.store.SaveAbstracts(ctx, abstracts); err != nil {
			return total, fmt.Errorf("save abstracts: %w", err)
		}
		total += len(abstracts)
	}
	return total, nil
}

// ImportCSV loads abstracts from a CSV file with "pmid" and "text" columns.
func (ix *Indexer) ImportCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	pmidCol, textCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "pmid":
			pmidCol = i
		case "text":
			textCol = i
		}
	}
	if pmidCol < 0 || textCol < 0 {
		return 0, fmt.Errorf("%w: csv needs pmid and text columns, got %v", domain.ErrInvalidInput, header)
	}

	fetchedAt := ix.now().UTC()
	var abstracts []domain.Abstract
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read csv line %d: %w", line, err)
		}
		text := CleanAbstract(rec[textCol])
		if text == "" {
			continue
		}
		abstracts = append(abstracts, domain.Abstract{
			PMID:      strings.TrimSpace(rec[pmidCol]),
			Text:      text,
			Topic:     "import",
			FetchedAt: fetchedAt,
		})
	}

	if err := ix.store.SaveAbstracts(ctx, abstracts); err != nil {
		return 0, fmt.Errorf("save abstracts: %w", err)
	}
	logger.Info("Imported %d abstracts from %s", len(abstracts), path)
	return len(abstracts), nil
}

// Build chunks every stored abstract, embeds the chunks and replaces the
// previous index.
func (ix *Indexer) Build(ctx context.Context) (domain.IndexStats, error) {
	if ix.embeddingService == nil {
		return domain.IndexStats{}, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Build Index")
	abstracts, err := ix.store.ListAbstracts(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("list abstracts: %w", err)
	}
	if len(abstracts) == 0 {
		return domain.IndexStats{}, fmt.Errorf("%w: no abstracts, run fetch or import first", domain.ErrNotFound)
	}

	var chunks []domain.Chunk
	for i := range abstracts {
		cs, err := ix.pipeline.Process(ctx, &abstracts[i])
		if err != nil {
			return domain.IndexStats{}, fmt.Errorf("chunk %s: %w", abstracts[i].PMID, err)
		}
		chunks = append(chunks, cs...)
	}
	logger.Info("Chunked %d abstracts into %d chunks", len(abstracts), len(chunks))

	if err := ix.embed(ctx, chunks); err != nil {
		return domain.IndexStats{}, err
	}

	if err := ix.store.ReplaceChunks(ctx, chunks); err != nil {
		return domain.IndexStats{}, fmt.Errorf("store chunks: %w", err)
	}
	return ix.store.Stats(ctx)
}

// embed fills chunk embeddings in place, batching requests across workers.
func (ix *Indexer) embed(ctx context.Context, chunks []domain.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Workers)

	for start := 0; start < len(chunks); start += ix.cfg.BatchSize {
		end := min(start+ix.cfg.BatchSize, len(chunks))
		batch := chunks[start:end]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Content
			}
			vecs, err := ix.embeddingService.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("embed chunks %d-%d: got %d vectors", start, end, len(vecs))
			}
			// Batches are disjoint sub-slices, so writes never overlap.
			for i := range batch {
				batch[i].Embedding = vecs[i]
			}
			logger.Debug("Embedded chunks %d-%d", start, end)
			return nil
		})
	}
	return g.Wait()
}

// Stats summarises the current index.
func (ix *Indexer) Stats(ctx context.Context) (domain.IndexStats, error) {
	return ix.store.Stats(ctx)
}

// CleanAbstract collapses newlines to spaces and trims the result.
func CleanAbstract(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}
