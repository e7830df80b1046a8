package companies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const companyColumns = `id, edinet_code, securities_code, name, kana_name, active, created_at, updated_at`

// GetByEdinetCode returns one company by its EDINET code.
func (r *PGRepo) GetByEdinetCode(ctx context.Context, edinetCode string) (Company, error) {
	const query = `
SELECT ` + companyColumns + `
FROM companies
WHERE edinet_code = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, edinetCode)
	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}
	return company, nil
}

// GetByEdinetCodes returns existing companies keyed by EDINET code.
func (r *PGRepo) GetByEdinetCodes(ctx context.Context, edinetCodes []string) (map[string]Company, error) {
	out := make(map[string]Company, len(edinetCodes))
	if len(edinetCodes) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(edinetCodes))
	args := make([]any, len(edinetCodes))
	for i, code := range edinetCodes {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = code
	}
	query := `
SELECT ` + companyColumns + `
FROM companies
WHERE edinet_code IN (` + strings.Join(placeholders, ", ") + `)`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out[company.EdinetCode] = company
	}
	return out, rows.Err()
}

// Create inserts a new company.
func (r *PGRepo) Create(ctx context.Context, company Company) error {
	const query = `
INSERT INTO companies (edinet_code, securities_code, name, kana_name, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (edinet_code) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query,
		company.EdinetCode,
		company.SecuritiesCode,
		company.Name,
		company.KanaName,
		company.Active,
	)
	return err
}

// Update refreshes mutable fields for an existing company.
func (r *PGRepo) Update(ctx context.Context, company Company) error {
	const query = `
UPDATE companies
SET securities_code = COALESCE($2, securities_code),
    name = $3,
    kana_name = COALESCE($4, kana_name),
    active = $5,
    updated_at = now()
WHERE edinet_code = $1`
	res, err := r.DB.ExecContext(ctx, query,
		company.EdinetCode,
		company.SecuritiesCode,
		company.Name,
		company.KanaName,
		company.Active,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkCreate inserts companies in one statement, ignoring conflicts.
func (r *PGRepo) BulkCreate(ctx context.Context, list []Company) error {
	if len(list) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO companies (edinet_code, securities_code, name, kana_name, active, created_at, updated_at) VALUES `)
	args := make([]any, 0, len(list)*5)
	for i, company := range list {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, now(), now())", base+1, base+2, base+3, base+4, base+5)
		args = append(args, company.EdinetCode, company.SecuritiesCode, company.Name, company.KanaName, company.Active)
	}
	sb.WriteString(` ON CONFLICT (edinet_code) DO NOTHING`)
	_, err := r.DB.ExecContext(ctx, sb.String(), args...)
	return err
}

// BulkUpdate applies updates row by row inside one transaction.
func (r *PGRepo) BulkUpdate(ctx context.Context, list []Company) error {
	if len(list) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	const query = `
UPDATE companies
SET securities_code = COALESCE($2, securities_code),
    name = $3,
    kana_name = COALESCE($4, kana_name),
    active = $5,
    updated_at = now()
WHERE edinet_code = $1`
	for _, company := range list {
		if _, err := tx.ExecContext(ctx, query,
			company.EdinetCode,
			company.SecuritiesCode,
			company.Name,
			company.KanaName,
			company.Active,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns companies ordered by EDINET code.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Company, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + companyColumns + `
FROM companies
ORDER BY edinet_code
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, company)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (Company, error) {
	var c Company
	var securitiesCode sql.NullString
	var kanaName sql.NullString
	var createdAt, updatedAt time.Time
	if err := row.Scan(&c.ID, &c.EdinetCode, &securitiesCode, &c.Name, &kanaName, &c.Active, &createdAt, &updatedAt); err != nil {
		return Company{}, err
	}
	if securitiesCode.Valid {
		c.SecuritiesCode = &securitiesCode.String
	}
	if kanaName.Valid {
		c.KanaName = &kanaName.String
	}
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt
	return c, nil
}
