package store

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
)

// PGVectorConfig configures a PGVector store.
type PGVectorConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

// PGVector is a Store backed by Postgres with the pgvector extension. Rows
// carry a namespace column for tenant scoping and a JSONB metadata column
// for filtered search.
type PGVector struct {
	config   PGVectorConfig
	pool     *pgxpool.Pool
	embedder embeddings.Embedder
}

// NewPGVector connects to Postgres, ensures the extension, table and indexes
// exist, and returns the store.
func NewPGVector(ctx context.Context, config PGVectorConfig, embedder embeddings.Embedder) (*PGVector, error) {
	if config.TableName == "" {
		config.TableName = "documents"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536 // OpenAI embedding dimension
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PGVector{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}

	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PGVector) initialize(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			namespace TEXT NOT NULL,
			content TEXT,
			embedding vector(%d),
			metadata JSONB
		)`, s.config.TableName, s.config.VectorDim)
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		s.config.TableName, s.config.TableName)
	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	createNamespaceIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_namespace_idx ON %s (namespace)`,
		s.config.TableName, s.config.TableName)
	if _, err := s.pool.Exec(ctx, createNamespaceIndex); err != nil {
		return fmt.Errorf("failed to create namespace index: %w", err)
	}

	return nil
}

// Upsert embeds the documents and writes them under the namespace in one
// transaction. Returns the generated id of every document, in input order.
func (s *PGVector) Upsert(ctx context.Context, docs []schema.Document, namespace string) ([]string, error) {
	if namespace == "" {
		return nil, ErrMissingNamespace
	}
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = sanitizeUTF8(doc.PageContent)
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, namespace, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`,
		s.config.TableName)

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = uuid.NewString()

		metadata, err := json.Marshal(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata: %w", err)
		}

		_, err = tx.Exec(ctx, stmt,
			ids[i],
			namespace,
			texts[i],
			pgvector.NewVector(vectors[i]),
			metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert document: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ids, nil
}

// SimilaritySearch embeds the query and returns the closest documents in the
// namespace, best match first.
func (s *PGVector) SimilaritySearch(ctx context.Context, query string, k int, namespace string, filter map[string]any) ([]schema.Document, error) {
	if namespace == "" {
		return nil, ErrMissingNamespace
	}
	if k <= 0 {
		k = 5
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filterJSON, err := json.Marshal(nonNilFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter: %w", err)
	}

	sql := fmt.Sprintf(`
		SELECT content, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE namespace = $2 AND metadata @> $3
		ORDER BY embedding <=> $1
		LIMIT $4`,
		s.config.TableName)

	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(vector), namespace, filterJSON, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []schema.Document
	for rows.Next() {
		var (
			content  string
			metadata []byte
			score    float32
		)
		if err := rows.Scan(&content, &metadata, &score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		doc := schema.Document{PageContent: content, Score: score}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata: %w", err)
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return docs, nil
}

// Delete removes vectors by ids, by filter, or all in the namespace.
//
// Filter deletes use the bounded scan-then-delete-by-id emulation so
// behavior stays uniform with hosted backends that lack native filter
// deletes: at most FilterScanCeiling matches are collected and removed in
// DeleteBatchSize batches. Zero matches is a no-op.
func (s *PGVector) Delete(ctx context.Context, req DeleteRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	switch {
	case req.DeleteAll:
		sql := fmt.Sprintf("DELETE FROM %s WHERE namespace = $1", s.config.TableName)
		if _, err := s.pool.Exec(ctx, sql, req.Namespace); err != nil {
			return fmt.Errorf("failed to delete namespace: %w", err)
		}
		return nil

	case len(req.IDs) > 0:
		return s.deleteByIDs(ctx, req.IDs, req.Namespace)

	default:
		ids, err := s.scanFilterMatches(ctx, req.Namespace, req.Filter)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return s.deleteByIDs(ctx, ids, req.Namespace)
	}
}

func (s *PGVector) deleteByIDs(ctx context.Context, ids []string, namespace string) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE namespace = $1 AND id = ANY($2)", s.config.TableName)
	for start := 0; start < len(ids); start += DeleteBatchSize {
		end := start + DeleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if _, err := s.pool.Exec(ctx, sql, namespace, ids[start:end]); err != nil {
			return fmt.Errorf("failed to delete documents: %w", err)
		}
	}
	return nil
}

// scanFilterMatches runs the zero-query similarity scan that backs the
// filter-delete emulation, returning at most FilterScanCeiling ids.
func (s *PGVector) scanFilterMatches(ctx context.Context, namespace string, filter map[string]any) ([]string, error) {
	filterJSON, err := json.Marshal(nonNilFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter: %w", err)
	}

	zero := pgvector.NewVector(make([]float32, s.config.VectorDim))
	sql := fmt.Sprintf(`
		SELECT id
		FROM %s
		WHERE namespace = $1 AND metadata @> $2
		ORDER BY embedding <=> $3
		LIMIT $4`,
		s.config.TableName)

	rows, err := s.pool.Query(ctx, sql, namespace, filterJSON, zero, FilterScanCeiling)
	if err != nil {
		return nil, fmt.Errorf("failed to scan filter matches: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect ids: %w", err)
	}
	return ids, nil
}

// Close releases the connection pool.
func (s *PGVector) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func nonNilFilter(filter map[string]any) map[string]any {
	if filter == nil {
		return map[string]any{}
	}
	return filter
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
