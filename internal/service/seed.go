package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/knoguchi/kbsearch/internal/embedder"
	"github.com/knoguchi/kbsearch/internal/vectorstore"
)

// seedNamespace derives stable chunk IDs from document slugs, so reseeding
// an existing collection upserts instead of duplicating.
var seedNamespace = uuid.MustParse("8f1c9d2e-5a74-4b6f-9c3d-2e8a1b4c7d50")

// seedDocument is one built-in knowledge-base entry.
type seedDocument struct {
	Slug         string
	Title        string
	Content      string
	Category     string
	DocumentType string
	Topics       []string
}

// seedCorpus is the built-in warehouse management knowledge base loaded on
// first start.
var seedCorpus = []seedDocument{
	{
		Slug:         "wave-picking",
		Title:        "Wave Picking",
		Content:      "Wave picking is a warehouse management method where multiple orders are grouped into batches and picked simultaneously by warehouse workers, improving efficiency and reducing travel time.",
		Category:     "Operations",
		DocumentType: "concept",
		Topics:       []string{"picking", "order fulfillment", "efficiency"},
	},
	{
		Slug:         "fifo",
		Title:        "FIFO Inventory Method",
		Content:      "FIFO (First-In-First-Out) is an inventory management method ensuring older stock is used before newer stock to prevent spoilage and maintain product quality.",
		Category:     "Inventory",
		DocumentType: "concept",
		Topics:       []string{"inventory", "stock rotation", "quality"},
	},
	{
		Slug:         "cycle-counting",
		Title:        "Cycle Counting",
		Content:      "Cycle counting is a systematic inventory auditing process where small subsets of inventory are counted on a regular rotating schedule to maintain accurate stock levels.",
		Category:     "Inventory",
		DocumentType: "process",
		Topics:       []string{"auditing", "inventory accuracy", "scheduling"},
	},
	{
		Slug:         "cross-docking",
		Title:        "Cross-Docking",
		Content:      "Cross-docking is a logistics practice where products are directly transferred from inbound to outbound transportation with minimal storage time, reducing handling costs.",
		Category:     "Logistics",
		DocumentType: "concept",
		Topics:       []string{"shipping", "receiving", "cost reduction"},
	},
	{
		Slug:         "abc-analysis",
		Title:        "ABC Analysis",
		Content:      "ABC analysis categorizes inventory into three groups: A (high-value, low-quantity), B (moderate value/quantity), and C (low-value, high-quantity) for optimized management.",
		Category:     "Inventory",
		DocumentType: "method",
		Topics:       []string{"classification", "inventory", "optimization"},
	},
	{
		Slug:         "jit-inventory",
		Title:        "Just-in-Time Inventory",
		Content:      "Just-in-time (JIT) inventory is a strategy to increase efficiency by receiving goods only when needed for production or sales, reducing inventory costs.",
		Category:     "Inventory",
		DocumentType: "strategy",
		Topics:       []string{"lean", "cost reduction", "supply chain"},
	},
	{
		Slug:         "wms",
		Title:        "Warehouse Management System",
		Content:      "Warehouse Management System (WMS) is software that manages and optimizes warehouse operations including receiving, storage, picking, packing, and shipping.",
		Category:     "Technology",
		DocumentType: "concept",
		Topics:       []string{"software", "automation", "operations"},
	},
	{
		Slug:         "barcode-scanning",
		Title:        "Barcode Scanning",
		Content:      "Barcode scanning uses optical readers to capture product information, improving accuracy and speed in inventory tracking and order fulfillment.",
		Category:     "Technology",
		DocumentType: "concept",
		Topics:       []string{"tracking", "accuracy", "order fulfillment"},
	},
}

// Seeder loads the built-in corpus into an empty collection on startup.
type Seeder struct {
	embedder embedder.Embedder
	store    vectorstore.VectorStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewSeeder creates a seeder for the given embedder and store.
func NewSeeder(emb embedder.Embedder, store vectorstore.VectorStore, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		embedder: emb,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// EnsureSeeded creates the collection and, if it is empty, embeds and upserts
// the built-in corpus. A non-empty collection is left untouched.
func (s *Seeder) EnsureSeeded(ctx context.Context) error {
	if err := s.store.EnsureCollection(ctx, s.embedder.Dimension()); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	if count > 0 {
		s.logger.Info("knowledge base already populated, skipping seed", "chunks", count)
		return nil
	}

	texts := make([]string, len(seedCorpus))
	for i, doc := range seedCorpus {
		texts[i] = doc.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed seed corpus: %w", err)
	}
	if len(vectors) != len(seedCorpus) {
		return fmt.Errorf("embed seed corpus: got %d vectors for %d documents", len(vectors), len(seedCorpus))
	}

	uploadedAt := s.now().UTC()
	chunks := make([]vectorstore.Chunk, len(seedCorpus))
	for i, doc := range seedCorpus {
		chunks[i] = vectorstore.Chunk{
			ID:      uuid.NewSHA1(seedNamespace, []byte(doc.Slug)).String(),
			Title:   doc.Title,
			Content: doc.Content,
			Vector:  vectors[i],
			Metadata: vectorstore.Metadata{
				Category:     doc.Category,
				DocumentType: doc.DocumentType,
				Topics:       doc.Topics,
				Filename:     doc.Slug + ".md",
				SizeBytes:    int64(len(doc.Content)),
				WordCount:    len(strings.Fields(doc.Content)),
				UploadedAt:   uploadedAt,
			},
		}
	}

	if err := s.store.Upsert(ctx, chunks); err != nil {
		return fmt.Errorf("upsert seed corpus: %w", err)
	}

	s.logger.Info("seeded knowledge base", "documents", len(chunks))
	return nil
}
