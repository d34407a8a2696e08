package record

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // registers the sqlite driver
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrMissingOutput  = errors.New("output id must be set")
)

// Store keeps records in a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens, or creates, the SQLite database at path. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	// a single connection keeps an in-memory database shared and serialises writes
	db.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

// New creates the schema in db if needed.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db, now: time.Now}
	err := s.initSchema()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create schema")
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS fba_records (
			id TEXT PRIMARY KEY,
			workspace TEXT NOT NULL,
			output_id TEXT NOT NULL,
			model_id TEXT NOT NULL,
			media_id TEXT NOT NULL,
			status TEXT NOT NULL,
			objective REAL,
			report_name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB,
			UNIQUE (workspace, output_id)
		);`,
	)

	return err
}

// Save stores rec, replacing the record with the same workspace and output id. It sets the id of a new
// record and the creation time.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.OutputID == "" {
		return ErrMissingOutput
	}

	payload, err := encode(rec.Payload)
	if err != nil {
		return errors.Wrap(err, "unable to encode payload")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = s.now().UTC()

	var objective sql.NullFloat64
	if !math.IsNaN(rec.Objective) && !math.IsInf(rec.Objective, 0) {
		objective = sql.NullFloat64{Float64: rec.Objective, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fba_records (id, workspace, output_id, model_id, media_id, status, objective, report_name, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (workspace, output_id) DO UPDATE SET
			model_id = excluded.model_id,
			media_id = excluded.media_id,
			status = excluded.status,
			objective = excluded.objective,
			report_name = excluded.report_name,
			created_at = excluded.created_at,
			payload = excluded.payload`,
		rec.ID,
		rec.Workspace,
		rec.OutputID,
		rec.ModelID,
		rec.MediaID,
		rec.Status,
		objective,
		rec.ReportName,
		rec.CreatedAt.Format(time.RFC3339Nano),
		payload,
	)
	if err != nil {
		return errors.Wrapf(err, "unable to save record %s/%s", rec.Workspace, rec.OutputID)
	}

	// an existing record keeps its id
	err = s.db.QueryRowContext(ctx, `SELECT id FROM fba_records WHERE workspace = ? AND output_id = ?`,
		rec.Workspace, rec.OutputID).Scan(&rec.ID)
	if err != nil {
		return errors.Wrap(err, "unable to read record id")
	}

	return nil
}

const selectRecord = `
	SELECT id, workspace, output_id, model_id, media_id, status, objective, report_name, created_at, payload
	FROM fba_records`

// Get returns the record of workspace and outputID.
func (s *Store) Get(ctx context.Context, workspace, outputID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE workspace = ? AND output_id = ?`, workspace, outputID)
	rec, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrRecordNotFound, "%s/%s", workspace, outputID)
	}
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// List returns the records of workspace, oldest first.
func (s *Store) List(ctx context.Context, workspace string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+` WHERE workspace = ? ORDER BY created_at, output_id`, workspace)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list records")
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to list records")
	}

	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*Record, error) {
	var (
		rec       Record
		objective sql.NullFloat64
		createdAt string
		payload   []byte
	)
	err := row.Scan(&rec.ID, &rec.Workspace, &rec.OutputID, &rec.ModelID, &rec.MediaID, &rec.Status,
		&objective, &rec.ReportName, &createdAt, &payload)
	if err != nil {
		return nil, err
	}

	rec.Objective = math.NaN()
	if objective.Valid {
		rec.Objective = objective.Float64
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid creation time of record %s", rec.ID)
	}
	rec.Payload, err = decode(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode payload of record %s", rec.ID)
	}

	return &rec, nil
}

func encode(p Payload) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(p)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decode(data []byte) (Payload, error) {
	var p Payload
	if len(data) == 0 {
		return p, nil
	}
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p)

	return p, err
}
