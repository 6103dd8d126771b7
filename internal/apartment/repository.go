package apartment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Store errors
var (
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrVersionConflict   = errors.New("apartment was modified concurrently")
)

// Filter narrows List results. Nil range bounds are ignored.
type Filter struct {
	OwnerID        string
	MinPrice       *int
	MaxPrice       *int
	MinRoommates   *int
	MaxRoommates   *int
	EntranceBefore *int64
}

// Store is the aggregate store: one versioned document per apartment.
// Save rejects writes computed against a stale snapshot with
// ErrVersionConflict; the caller must reload and retry the whole cycle.
type Store interface {
	Create(ctx context.Context, a *Apartment) error
	Load(ctx context.Context, id string) (*Apartment, error)
	Save(ctx context.Context, a *Apartment, expectedVersion int64) (int64, error)
	List(ctx context.Context, f Filter) ([]*Apartment, error)
}

// Repository persists apartment documents in Postgres, whole-document
// writes only.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new apartment repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new apartment document at version 1
func (r *Repository) Create(ctx context.Context, a *Apartment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode apartment: %w", err)
	}

	query := `
		INSERT INTO apartments (id, version, doc)
		VALUES ($1, 1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, a.ID, doc); err != nil {
		return fmt.Errorf("failed to create apartment: %w", err)
	}
	a.Version = 1
	return nil
}

// Load reads the apartment document and its current version
func (r *Repository) Load(ctx context.Context, id string) (*Apartment, error) {
	query := `
		SELECT version, doc
		FROM apartments
		WHERE id = $1
	`

	var (
		version int64
		doc     []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&version, &doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrApartmentNotFound
		}
		return nil, fmt.Errorf("failed to load apartment: %w", err)
	}

	a := &Apartment{}
	if err := json.Unmarshal(doc, a); err != nil {
		return nil, fmt.Errorf("failed to decode apartment: %w", err)
	}
	a.Version = version
	return a, nil
}

// Save atomically rewrites the whole document, but only if the stored
// version still matches expectedVersion. On success it returns the new
// version and updates a.Version.
func (r *Repository) Save(ctx context.Context, a *Apartment, expectedVersion int64) (int64, error) {
	doc, err := json.Marshal(a)
	if err != nil {
		return 0, fmt.Errorf("failed to encode apartment: %w", err)
	}

	query := `
		UPDATE apartments
		SET doc = $2, version = version + 1
		WHERE id = $1 AND version = $3
		RETURNING version
	`

	var newVersion int64
	err = r.db.QueryRowContext(ctx, query, a.ID, doc, expectedVersion).Scan(&newVersion)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, r.saveFailure(ctx, a.ID)
		}
		return 0, fmt.Errorf("failed to save apartment: %w", err)
	}

	a.Version = newVersion
	return newVersion, nil
}

// saveFailure tells a missing document apart from a stale write
func (r *Repository) saveFailure(ctx context.Context, id string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM apartments WHERE id = $1)`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to save apartment: %w", err)
	}
	if !exists {
		return ErrApartmentNotFound
	}
	return ErrVersionConflict
}

// List retrieves apartments matching the filter, newest first
func (r *Repository) List(ctx context.Context, f Filter) ([]*Apartment, error) {
	query := `
		SELECT version, doc
		FROM apartments
	`

	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.OwnerID != "" {
		where = append(where, "doc->>'owner_id' = "+arg(f.OwnerID))
	}
	if f.MinPrice != nil {
		where = append(where, "(doc->>'price')::bigint >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "(doc->>'price')::bigint <= "+arg(*f.MaxPrice))
	}
	if f.MinRoommates != nil {
		where = append(where, "(doc->>'required_roommates')::int >= "+arg(*f.MinRoommates))
	}
	if f.MaxRoommates != nil {
		where = append(where, "(doc->>'required_roommates')::int <= "+arg(*f.MaxRoommates))
	}
	if f.EntranceBefore != nil {
		where = append(where, "(doc->>'entrance_date')::bigint <= "+arg(*f.EntranceBefore))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY (doc->>'created_at')::bigint DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list apartments: %w", err)
	}
	defer rows.Close()

	var apartments []*Apartment
	for rows.Next() {
		var (
			version int64
			doc     []byte
		)
		if err := rows.Scan(&version, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan apartment: %w", err)
		}
		a := &Apartment{}
		if err := json.Unmarshal(doc, a); err != nil {
			return nil, fmt.Errorf("failed to decode apartment: %w", err)
		}
		a.Version = version
		apartments = append(apartments, a)
	}

	return apartments, rows.Err()
}
