package vectorstore

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

const (
	// DefaultScrollLimit bounds a full corpus listing. The lexical path
	// rescans the whole collection per query, so the corpus is expected to
	// stay well under this.
	DefaultScrollLimit = 4096
)

// QdrantStore implements VectorStore using Qdrant. Collections are created
// with cosine distance; Qdrant reports a cosine similarity score which is
// converted back to a distance so callers see one metric.
type QdrantStore struct {
	client      *qdrant.Client
	collection  string
	scrollLimit uint32
}

// QdrantConfig holds settings for the Qdrant store.
type QdrantConfig struct {
	// URL is the gRPC endpoint in "host:port" form (default port 6334).
	URL string

	// Collection is the collection name holding the chunk corpus.
	Collection string

	// ScrollLimit caps ListAll page size (default DefaultScrollLimit).
	ScrollLimit int
}

// NewQdrantStore creates a new Qdrant-backed store.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	host, portStr, err := net.SplitHostPort(cfg.URL)
	if err != nil {
		// No port specified, assume the gRPC default.
		host = cfg.URL
		portStr = "6334"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant url: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	scrollLimit := uint32(DefaultScrollLimit)
	if cfg.ScrollLimit > 0 {
		scrollLimit = uint32(cfg.ScrollLimit)
	}

	return &QdrantStore{
		client:      client,
		collection:  cfg.Collection,
		scrollLimit: scrollLimit,
	}, nil
}

// Close closes the underlying client connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// EnsureCollection creates the chunk collection if it does not exist yet.
func (s *QdrantStore) EnsureCollection(ctx context.Context, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Upsert inserts or updates chunks in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(chunk.ID),
			Vectors: qdrant.NewVectors(chunk.Vector...),
			Payload: encodePayload(chunk.Title, chunk.Content, chunk.Metadata),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// NearestNeighbors performs a similarity search and returns hits ordered by
// ascending cosine distance.
func (s *QdrantStore) NearestNeighbors(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	response, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]Hit, 0, len(response))
	for _, point := range response {
		title, content, meta := decodePayload(point.Payload)
		hits = append(hits, Hit{
			ID:       point.Id.GetUuid(),
			Title:    title,
			Content:  content,
			Metadata: meta,
			// Qdrant reports cosine similarity for cosine collections.
			Distance: 1 - float64(point.Score),
		})
	}
	return hits, nil
}

// ListAll returns a snapshot of the collection contents, up to the configured
// scroll limit.
func (s *QdrantStore) ListAll(ctx context.Context) ([]StoredChunk, error) {
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Limit:          qdrant.PtrOf(s.scrollLimit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll collection: %w", err)
	}

	chunks := make([]StoredChunk, 0, len(points))
	for _, point := range points {
		title, content, meta := decodePayload(point.Payload)
		chunks = append(chunks, StoredChunk{
			ID:       point.Id.GetUuid(),
			Title:    title,
			Content:  content,
			Metadata: meta,
		})
	}
	return chunks, nil
}

// Count returns the exact number of stored chunks.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

func encodePayload(title, content string, meta Metadata) map[string]*qdrant.Value {
	payload := map[string]*qdrant.Value{
		"title":   qdrant.NewValueString(title),
		"content": qdrant.NewValueString(content),
	}
	if meta.Category != "" {
		payload["category"] = qdrant.NewValueString(meta.Category)
	}
	if meta.DocumentType != "" {
		payload["document_type"] = qdrant.NewValueString(meta.DocumentType)
	}
	if len(meta.Topics) > 0 {
		payload["topics"] = qdrant.NewValueString(strings.Join(meta.Topics, ","))
	}
	if meta.Filename != "" {
		payload["filename"] = qdrant.NewValueString(meta.Filename)
	}
	if meta.SizeBytes > 0 {
		payload["size_bytes"] = qdrant.NewValueInt(meta.SizeBytes)
	}
	if meta.WordCount > 0 {
		payload["word_count"] = qdrant.NewValueInt(int64(meta.WordCount))
	}
	if !meta.UploadedAt.IsZero() {
		payload["uploaded_at"] = qdrant.NewValueString(meta.UploadedAt.Format(time.RFC3339))
	}
	return payload
}

func decodePayload(payload map[string]*qdrant.Value) (title, content string, meta Metadata) {
	if payload == nil {
		return "", "", Metadata{}
	}

	if v, ok := payload["title"]; ok {
		title = v.GetStringValue()
	}
	if v, ok := payload["content"]; ok {
		content = v.GetStringValue()
	}
	if v, ok := payload["category"]; ok {
		meta.Category = v.GetStringValue()
	}
	if v, ok := payload["document_type"]; ok {
		meta.DocumentType = v.GetStringValue()
	}
	if v, ok := payload["topics"]; ok {
		if raw := v.GetStringValue(); raw != "" {
			meta.Topics = strings.Split(raw, ",")
		}
	}
	if v, ok := payload["filename"]; ok {
		meta.Filename = v.GetStringValue()
	}
	if v, ok := payload["size_bytes"]; ok {
		meta.SizeBytes = v.GetIntegerValue()
	}
	if v, ok := payload["word_count"]; ok {
		meta.WordCount = int(v.GetIntegerValue())
	}
	if v, ok := payload["uploaded_at"]; ok {
		if ts, err := time.Parse(time.RFC3339, v.GetStringValue()); err == nil {
			meta.UploadedAt = ts
		}
	}
	return title, content, meta
}

// Ensure QdrantStore implements VectorStore.
var _ VectorStore = (*QdrantStore)(nil)
