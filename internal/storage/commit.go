package storage

import (
	"github.com/google/uuid"

	"datafill/internal/domain"
)

// CommitStore implements domain.CommitRunStore using SQLite.
type CommitStore struct {
	db *DB
}

// NewCommitStore creates a new CommitStore.
func NewCommitStore(db *DB) *CommitStore {
	return &CommitStore{db: db}
}

func (s *CommitStore) CreateRun(r *domain.CommitRun) error {
	r.ID = uuid.New().String()
	_, err := s.db.conn.Exec(
		`INSERT INTO commit_runs (id, document, mode, records, bound, failed, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Document, r.Mode, r.Records, r.Bound, r.Failed, r.Status, r.Error, r.StartedAt, r.FinishedAt,
	)
	return err
}

func (s *CommitStore) ListRuns(limit int) ([]domain.CommitRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.conn.Query(
		`SELECT id, document, mode, records, bound, failed, status, error, started_at, finished_at
		 FROM commit_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.CommitRun
	for rows.Next() {
		var r domain.CommitRun
		if err := rows.Scan(&r.ID, &r.Document, &r.Mode, &r.Records, &r.Bound, &r.Failed,
			&r.Status, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
