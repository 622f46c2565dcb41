package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Document is a stored file attached to a business entity (lease contract,
// cheque scan, inspection report).  Bytes live in the document store; this
// row is the metadata and the storage key.
type Document struct {
	ID          uint64     `json:"id"`
	OrgID       uint64     `json:"-"`
	EntityKind  string     `json:"entity_kind"`
	EntityID    uint64     `json:"entity_id"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	SizeBytes   int64      `json:"size_bytes"`
	StorageKey  string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"-"`
}

// DocumentRepo encapsulates database queries for document metadata.
type DocumentRepo struct{ DB *sql.DB }

func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{DB: db} }

const documentCols = "id, org_id, entity_kind, entity_id, file_name, content_type, size_bytes, storage_key, created_at"

// Create inserts a document metadata row.
func (r *DocumentRepo) Create(ctx context.Context, d *Document) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO documents (org_id, entity_kind, entity_id, file_name, content_type, size_bytes, storage_key) VALUES (?,?,?,?,?,?,?)",
		d.OrgID, d.EntityKind, d.EntityID, d.FileName, d.ContentType, d.SizeBytes, d.StorageKey)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM documents WHERE id=?", d.ID).Scan(&d.CreatedAt)
}

// GetByIDAndOrg fetches a live document scoped to the organization.
func (r *DocumentRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*Document, error) {
	var d Document
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+documentCols+" FROM documents WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID).
		Scan(&d.ID, &d.OrgID, &d.EntityKind, &d.EntityID, &d.FileName, &d.ContentType,
			&d.SizeBytes, &d.StorageKey, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListByEntity returns the live documents attached to one entity.
func (r *DocumentRepo) ListByEntity(ctx context.Context, orgID uint64, kind string, entityID uint64) ([]*Document, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+documentCols+" FROM documents WHERE org_id=? AND entity_kind=? AND entity_id=? AND deleted_at IS NULL ORDER BY id DESC",
		orgID, kind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.OrgID, &d.EntityKind, &d.EntityID, &d.FileName,
			&d.ContentType, &d.SizeBytes, &d.StorageKey, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// SoftDelete stamps deleted_at; the stored bytes are left for a later
// storage compaction.
func (r *DocumentRepo) SoftDelete(ctx context.Context, id, orgID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE documents SET deleted_at=NOW() WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
