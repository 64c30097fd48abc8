package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/agrisupport/internal/domain"
)

// VerificationRepository manages pending one-time code persistence.
//
// Consume is a conditional update with used=false as precondition, so two
// requests racing on the same code resolve at the row level: exactly one
// caller flips the flag, the loser sees pgx.ErrNoRows. Replace runs
// delete-then-insert in one transaction so issuing a fresh code atomically
// invalidates prior records for the same (kind, email).
type VerificationRepository interface {
	Replace(ctx context.Context, rec *domain.PendingVerification) error
	GetByCode(ctx context.Context, kind domain.VerificationKind, email, code string) (*domain.PendingVerification, error)
	GetLatest(ctx context.Context, kind domain.VerificationKind, email string) (*domain.PendingVerification, error)
	Consume(ctx context.Context, id string) error
	Unconsume(ctx context.Context, id string) error
	HasPending(ctx context.Context, kind domain.VerificationKind, email string) (bool, error)
	DeleteByKindEmail(ctx context.Context, kind domain.VerificationKind, email string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type verificationRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationRepository constructs repository.
func NewVerificationRepository(pool *pgxpool.Pool) VerificationRepository {
	return &verificationRepository{pool: pool}
}

func (r *verificationRepository) Replace(ctx context.Context, rec *domain.PendingVerification) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM verification_codes WHERE kind=$1 AND email=$2`,
		rec.Kind, rec.Email,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO verification_codes (id, kind, email, code, payload, created_at, expires_at, used)
         VALUES ($1,$2,$3,$4,$5,$6,$7,FALSE)`,
		rec.ID, rec.Kind, rec.Email, rec.Code, rec.Payload, rec.CreatedAt, rec.ExpiresAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *verificationRepository) GetByCode(ctx context.Context, kind domain.VerificationKind, email, code string) (*domain.PendingVerification, error) {
	const query = `
        SELECT id, kind, email, code, payload, created_at, expires_at, used
        FROM verification_codes
        WHERE kind=$1 AND email=$2 AND code=$3
        ORDER BY created_at DESC LIMIT 1`

	return scanVerification(r.pool.QueryRow(ctx, query, kind, email, code))
}

func (r *verificationRepository) GetLatest(ctx context.Context, kind domain.VerificationKind, email string) (*domain.PendingVerification, error) {
	const query = `
        SELECT id, kind, email, code, payload, created_at, expires_at, used
        FROM verification_codes
        WHERE kind=$1 AND email=$2
        ORDER BY created_at DESC LIMIT 1`

	return scanVerification(r.pool.QueryRow(ctx, query, kind, email))
}

func (r *verificationRepository) Consume(ctx context.Context, id string) error {
	const query = `UPDATE verification_codes SET used=TRUE WHERE id=$1 AND used=FALSE`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *verificationRepository) Unconsume(ctx context.Context, id string) error {
	const query = `UPDATE verification_codes SET used=FALSE WHERE id=$1`

	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *verificationRepository) HasPending(ctx context.Context, kind domain.VerificationKind, email string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM verification_codes
            WHERE kind=$1 AND email=$2 AND used=FALSE AND expires_at > NOW()
        )`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, kind, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *verificationRepository) DeleteByKindEmail(ctx context.Context, kind domain.VerificationKind, email string) error {
	const query = `DELETE FROM verification_codes WHERE kind=$1 AND email=$2`

	_, err := r.pool.Exec(ctx, query, kind, email)
	return err
}

func (r *verificationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM verification_codes WHERE used=TRUE OR expires_at < NOW()`

	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanVerification(row pgx.Row) (*domain.PendingVerification, error) {
	var rec domain.PendingVerification
	if err := row.Scan(
		&rec.ID,
		&rec.Kind,
		&rec.Email,
		&rec.Code,
		&rec.Payload,
		&rec.CreatedAt,
		&rec.ExpiresAt,
		&rec.Used,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
