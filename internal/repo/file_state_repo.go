package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/schle1cherr/docrag/internal/pkg/dbutil"
)

// FileState records what has been ingested for one source file, so that
// re-ingest runs can skip unchanged files.
type FileState struct {
	Source      string
	ContentHash string
	ChunkCount  int
	Mtime       int64
}

type FileStateRepo struct {
	db *sql.DB
}

func NewFileStateRepo(db *sql.DB) *FileStateRepo {
	return &FileStateRepo{db: db}
}

func (r *FileStateRepo) Get(ctx context.Context, source string) (*FileState, error) {
	sqlStr, args, err := builder.BuildSelect("ingested_files",
		map[string]interface{}{"source": source},
		[]string{"source", "content_hash", "chunk_count", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var state FileState
	if err := row.Scan(&state.Source, &state.ContentHash, &state.ChunkCount, &state.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *FileStateRepo) Save(ctx context.Context, state *FileState) error {
	const query = `
		INSERT INTO ingested_files (source, content_hash, chunk_count, mtime)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source) DO UPDATE SET
			content_hash = EXCLUDED.content_hash,
			chunk_count = EXCLUDED.chunk_count,
			mtime = EXCLUDED.mtime
	`
	_, err := r.db.ExecContext(ctx, query, state.Source, state.ContentHash, state.ChunkCount, state.Mtime)
	return err
}

func (r *FileStateRepo) List(ctx context.Context) ([]FileState, error) {
	sqlStr, args, err := builder.BuildSelect("ingested_files",
		map[string]interface{}{"_orderby": "source"},
		[]string{"source", "content_hash", "chunk_count", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var states []FileState
	for rows.Next() {
		var state FileState
		if err := rows.Scan(&state.Source, &state.ContentHash, &state.ChunkCount, &state.Mtime); err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

func (r *FileStateRepo) Delete(ctx context.Context, source string) error {
	sqlStr, args, err := builder.BuildDelete("ingested_files", map[string]interface{}{"source": source})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
