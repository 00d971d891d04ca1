package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/photohub/internal/domain/audit"
	"github.com/geocoder89/photohub/internal/domain/submission"
	"github.com/geocoder89/photohub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const submissionColumns = `id, user_id, name, age, place_of_living, gender, country_of_origin,
	description, photo_path, classification_result, created_at`

type SubmissionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSubmissionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SubmissionsRepo {
	return &SubmissionsRepo{pool: pool, prom: prom}
}

func (repo *SubmissionsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *SubmissionsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return repo.pool.BeginTx(ctx, pgx.TxOptions{})
}

// CreateTx inserts the submission and its audit entry on the given transaction.
func (repo *SubmissionsRepo) CreateTx(ctx context.Context, tx pgx.Tx, s submission.Submission) (err error) {
	err = repo.observe("submissions.create_tx.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO submissions (`+submissionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, s.ID, s.UserID, s.Name, s.Age, s.PlaceOfLiving, s.Gender, s.CountryOfOrigin,
			s.Description, s.PhotoPath, s.ClassificationResult, s.CreatedAt)
		return e
	})

	if err != nil {
		return
	}

	entry := audit.NewEntry(s.UserID, audit.ActionCreatedSubmission, s.CreatedAt)

	err = repo.observe("submissions.create_tx.audit", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, created_at)
		VALUES ($1,$2,$3,$4)
	`, entry.ID, entry.UserID, entry.Action, entry.CreatedAt)
		return e
	})

	return
}

// Create persists the submission and the created_submission audit row
// atomically. Neither is visible unless both are written.
func (repo *SubmissionsRepo) Create(ctx context.Context, userID string, req submission.CreateSubmissionRequest, photoPath, label string) (s submission.Submission, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	candidate := submission.New(userID, req, photoPath, label)

	err = repo.CreateTx(ctx, tx, candidate)

	if err != nil {
		return
	}

	err = repo.observe("submissions.create_tx.commit", func() error {
		return tx.Commit(ctx)
	})

	if err != nil {
		return
	}

	s = candidate
	return
}

func (repo *SubmissionsRepo) GetByID(ctx context.Context, id string) (submission.Submission, error) {
	var s submission.Submission

	err := repo.observe("submissions.get_by_id", func() error {
		row := repo.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
		return scanSubmission(row, &s)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, err
	}

	return s, nil
}

// ListFiltered returns every submission matching the filter, newest first.
func (repo *SubmissionsRepo) ListFiltered(ctx context.Context, f submission.ListFilter) ([]submission.Submission, error) {
	query, args := buildListQuery(f)
	return repo.list(ctx, "submissions.list_filtered", query, args...)
}

// ListLatest returns at most limit submissions, newest first.
func (repo *SubmissionsRepo) ListLatest(ctx context.Context, limit int) ([]submission.Submission, error) {
	return repo.list(ctx, "submissions.list_latest",
		`SELECT `+submissionColumns+` FROM submissions ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit,
	)
}

func (repo *SubmissionsRepo) list(ctx context.Context, op, query string, args ...any) (subs []submission.Submission, err error) {
	var rows pgx.Rows

	err = repo.observe(op, func() error {
		rows, err = repo.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	subs = make([]submission.Submission, 0)

	for rows.Next() {
		var s submission.Submission

		if e := scanSubmission(rows, &s); e != nil {
			err = e
			return
		}
		subs = append(subs, s)
	}

	if e := rows.Err(); e != nil {
		if repo.prom != nil {
			repo.prom.DbErrorsTotal.WithLabelValues(op, "rows_err").Inc()
		}
		err = e
		return
	}

	return
}

func scanSubmission(row pgx.Row, s *submission.Submission) error {
	var createdAt time.Time

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.Age,
		&s.PlaceOfLiving,
		&s.Gender,
		&s.CountryOfOrigin,
		&s.Description,
		&s.PhotoPath,
		&s.ClassificationResult,
		&createdAt,
	)
	if err != nil {
		return err
	}

	s.CreatedAt = createdAt.UTC()
	return nil
}

func buildListQuery(f submission.ListFilter) (string, []any) {
	query := `SELECT ` + submissionColumns + ` FROM submissions`

	conds := []string{}
	var args []any
	argsPosition := 1

	if f.AgeMin != nil {
		conds = append(conds, fmt.Sprintf("age >= $%d", argsPosition))
		args = append(args, *f.AgeMin)
		argsPosition++
	}

	if f.AgeMax != nil {
		conds = append(conds, fmt.Sprintf("age <= $%d", argsPosition))
		args = append(args, *f.AgeMax)
		argsPosition++
	}

	for _, tf := range []struct {
		column string
		value  *string
	}{
		{"gender", f.Gender},
		{"place_of_living", f.PlaceOfLiving},
		{"country_of_origin", f.CountryOfOrigin},
	} {
		if tf.value == nil || *tf.value == "" {
			continue
		}
		conds = append(conds, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, tf.column, argsPosition))
		args = append(args, "%"+escapeLike(*tf.value)+"%")
		argsPosition++
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
