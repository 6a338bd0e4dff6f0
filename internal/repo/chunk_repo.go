package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/schle1cherr/docrag/internal/model"
	"github.com/schle1cherr/docrag/internal/pkg/dbutil"
)

type ChunkRepo struct {
	db       *sql.DB
	embedDim int
}

// NewChunkRepo wires the chunk store. embedDim must match the dimension the
// vector column was created with.
func NewChunkRepo(db *sql.DB, embedDim int) *ChunkRepo {
	return &ChunkRepo{db: db, embedDim: embedDim}
}

// ChunkRecord pairs a chunk with its embedding for storage.
type ChunkRecord struct {
	Chunk     model.Chunk
	Embedding []float32
}

// ReplaceSource swaps out all chunks of one source atomically. Chunks are
// immutable; re-ingesting a file replaces its rows instead of updating them.
func (r *ChunkRepo) ReplaceSource(ctx context.Context, source string, records []ChunkRecord) error {
	for _, rec := range records {
		if len(rec.Embedding) > 0 && len(rec.Embedding) != r.embedDim {
			return fmt.Errorf("chunk embedding has dimension %d, index expects %d", len(rec.Embedding), r.embedDim)
		}
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	delSQL, delArgs, err := builder.BuildDelete("chunks", map[string]interface{}{"source": source})
	if err != nil {
		return err
	}
	delSQL, delArgs = dbutil.Finalize(delSQL, delArgs)
	if _, err := tx.ExecContext(ctx, delSQL, delArgs...); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	const insSQL = `
		INSERT INTO chunks (source, page_number, section_label, pos, content, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, rec := range records {
		var page sql.NullInt64
		if rec.Chunk.PageNumber != nil {
			page = sql.NullInt64{Int64: int64(*rec.Chunk.PageNumber), Valid: true}
		}
		var embedding interface{}
		if len(rec.Embedding) > 0 {
			embedding = pgvector.NewVector(rec.Embedding)
		}
		if _, err := tx.ExecContext(ctx, insSQL,
			rec.Chunk.Source,
			page,
			rec.Chunk.SectionLabel,
			rec.Chunk.Position,
			rec.Chunk.Content,
			embedding,
			now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ChunkRepo) DeleteSource(ctx context.Context, source string) error {
	sqlStr, args, err := builder.BuildDelete("chunks", map[string]interface{}{"source": source})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// List returns chunks in reading order (source, then position), up to limit.
func (r *ChunkRepo) List(ctx context.Context, limit uint) ([]model.Chunk, error) {
	where := map[string]interface{}{
		"_orderby": "source, pos",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	sqlStr, args, err := builder.BuildSelect("chunks", where,
		[]string{"id", "source", "page_number", "section_label", "pos", "content"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (r *ChunkRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SearchDense returns the k chunks nearest to the query embedding by cosine
// distance, best first.
func (r *ChunkRepo) SearchDense(ctx context.Context, embedding []float32, k int) ([]model.Chunk, error) {
	if len(embedding) == 0 || k <= 0 {
		return nil, nil
	}
	if len(embedding) != r.embedDim {
		return nil, fmt.Errorf("query embedding has dimension %d, index expects %d", len(embedding), r.embedDim)
	}
	const query = `
		SELECT id, source, page_number, section_label, pos, content
		FROM chunks
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// SearchLexical returns the k best full-text matches for the query, ranked
// by ts_rank, best first.
func (r *ChunkRepo) SearchLexical(ctx context.Context, query string, k int) ([]model.Chunk, error) {
	if query == "" || k <= 0 {
		return nil, nil
	}
	const stmt = `
		SELECT id, source, page_number, section_label, pos, content
		FROM chunks, plainto_tsquery('simple', $1) q
		WHERE tsv @@ q
		ORDER BY ts_rank(tsv, q) DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, stmt, query, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]model.Chunk, error) {
	var chunks []model.Chunk
	for rows.Next() {
		var c model.Chunk
		var page sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Source, &page, &c.SectionLabel, &c.Position, &c.Content); err != nil {
			return nil, err
		}
		if page.Valid {
			c.PageNumber = model.PageRef(int(page.Int64))
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
