package postgres

import (
	"database/sql"
	"time"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

const userColumns = `id, name, email, password_hash, role, is_verified, verification_token, verification_sent_at, consumed_verification_token, created_at`

type userRow struct {
	ID                        int64
	Name                      string
	Email                     string
	PasswordHash              string
	Role                      string
	IsVerified                bool
	VerificationToken         sql.NullString
	VerificationSentAt        sql.NullTime
	ConsumedVerificationToken sql.NullString
	CreatedAt                 time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.Name,
		&ur.Email,
		&ur.PasswordHash,
		&ur.Role,
		&ur.IsVerified,
		&ur.VerificationToken,
		&ur.VerificationSentAt,
		&ur.ConsumedVerificationToken,
		&ur.CreatedAt,
	)
	return ur, err
}

func toDomainUser(ur userRow) domain.User {
	u := domain.User{
		ID:                        ur.ID,
		Name:                      ur.Name,
		Email:                     ur.Email,
		PasswordHash:              ur.PasswordHash,
		Role:                      ur.Role,
		IsVerified:                ur.IsVerified,
		VerificationToken:         ur.VerificationToken.String,
		ConsumedVerificationToken: ur.ConsumedVerificationToken.String,
		CreatedAt:                 ur.CreatedAt,
	}
	if ur.VerificationSentAt.Valid {
		t := ur.VerificationSentAt.Time
		u.VerificationSentAt = &t
	}
	return u
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
