package finance

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PGRepo is the Postgres implementation of Repo.
type PGRepo struct {
	DB *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

const financialColumns = `id, doc_id, edinet_code, period_type, period_start, period_end, fiscal_year,
	net_sales, operating_income, ordinary_income, net_income,
	total_assets, total_liabilities, net_assets,
	operating_cf, investing_cf, financing_cf,
	operating_margin, net_margin, roa, equity_ratio,
	data_completeness, extraction_confidence, created_at, updated_at`

func (r *PGRepo) Upsert(ctx context.Context, data *FinancialData) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert financial data: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM financial_data
		WHERE doc_id = $1 AND period_type = $2
		  AND period_start IS NOT DISTINCT FROM $3
		  AND period_end IS NOT DISTINCT FROM $4
		FOR UPDATE`,
		data.DocID, data.PeriodType, nullTime(data.PeriodStart), nullTime(data.PeriodEnd),
	).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		err = tx.QueryRowContext(ctx, `
			INSERT INTO financial_data (
				doc_id, edinet_code, period_type, period_start, period_end, fiscal_year,
				net_sales, operating_income, ordinary_income, net_income,
				total_assets, total_liabilities, net_assets,
				operating_cf, investing_cf, financing_cf,
				operating_margin, net_margin, roa, equity_ratio,
				data_completeness, extraction_confidence
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
			RETURNING id`,
			data.DocID, nullString(data.EdinetCode), data.PeriodType,
			nullTime(data.PeriodStart), nullTime(data.PeriodEnd), nullInt(data.FiscalYear),
			nullFloat(data.NetSales), nullFloat(data.OperatingIncome),
			nullFloat(data.OrdinaryIncome), nullFloat(data.NetIncome),
			nullFloat(data.TotalAssets), nullFloat(data.TotalLiabilities), nullFloat(data.NetAssets),
			nullFloat(data.OperatingCF), nullFloat(data.InvestingCF), nullFloat(data.FinancingCF),
			nullFloat(data.OperatingMargin), nullFloat(data.NetMargin),
			nullFloat(data.ROA), nullFloat(data.EquityRatio),
			data.DataCompleteness, data.ExtractionConfidence,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert financial data: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lock financial data: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE financial_data SET
				edinet_code = $2, fiscal_year = $3,
				net_sales = $4, operating_income = $5, ordinary_income = $6, net_income = $7,
				total_assets = $8, total_liabilities = $9, net_assets = $10,
				operating_cf = $11, investing_cf = $12, financing_cf = $13,
				operating_margin = $14, net_margin = $15, roa = $16, equity_ratio = $17,
				data_completeness = $18, extraction_confidence = $19,
				updated_at = now()
			WHERE id = $1`,
			id, nullString(data.EdinetCode), nullInt(data.FiscalYear),
			nullFloat(data.NetSales), nullFloat(data.OperatingIncome),
			nullFloat(data.OrdinaryIncome), nullFloat(data.NetIncome),
			nullFloat(data.TotalAssets), nullFloat(data.TotalLiabilities), nullFloat(data.NetAssets),
			nullFloat(data.OperatingCF), nullFloat(data.InvestingCF), nullFloat(data.FinancingCF),
			nullFloat(data.OperatingMargin), nullFloat(data.NetMargin),
			nullFloat(data.ROA), nullFloat(data.EquityRatio),
			data.DataCompleteness, data.ExtractionConfidence,
		)
		if err != nil {
			return fmt.Errorf("update financial data: %w", err)
		}
	}

	data.ID = id
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert financial data: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByDocID(ctx context.Context, docID string) ([]*FinancialData, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+financialColumns+`
		FROM financial_data
		WHERE doc_id = $1
		ORDER BY period_end DESC NULLS LAST, id DESC`, docID)
	if err != nil {
		return nil, fmt.Errorf("query financial data: %w", err)
	}
	defer rows.Close()

	var out []*FinancialData
	for rows.Next() {
		data, err := scanFinancial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

func scanFinancial(rows *sql.Rows) (*FinancialData, error) {
	var (
		f           FinancialData
		edinetCode  sql.NullString
		periodStart sql.NullTime
		periodEnd   sql.NullTime
		fiscalYear  sql.NullInt64

		netSales, operatingIncome, ordinaryIncome, netIncome sql.NullFloat64
		totalAssets, totalLiabilities, netAssets             sql.NullFloat64
		operatingCF, investingCF, financingCF                sql.NullFloat64
		operatingMargin, netMargin, roa, equityRatio         sql.NullFloat64
	)
	err := rows.Scan(
		&f.ID, &f.DocID, &edinetCode, &f.PeriodType, &periodStart, &periodEnd, &fiscalYear,
		&netSales, &operatingIncome, &ordinaryIncome, &netIncome,
		&totalAssets, &totalLiabilities, &netAssets,
		&operatingCF, &investingCF, &financingCF,
		&operatingMargin, &netMargin, &roa, &equityRatio,
		&f.DataCompleteness, &f.ExtractionConfidence, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan financial data: %w", err)
	}
	f.EdinetCode = fromNullString(edinetCode)
	f.PeriodStart = fromNullTime(periodStart)
	f.PeriodEnd = fromNullTime(periodEnd)
	f.FiscalYear = fromNullInt(fiscalYear)
	f.NetSales = fromNullFloat(netSales)
	f.OperatingIncome = fromNullFloat(operatingIncome)
	f.OrdinaryIncome = fromNullFloat(ordinaryIncome)
	f.NetIncome = fromNullFloat(netIncome)
	f.TotalAssets = fromNullFloat(totalAssets)
	f.TotalLiabilities = fromNullFloat(totalLiabilities)
	f.NetAssets = fromNullFloat(netAssets)
	f.OperatingCF = fromNullFloat(operatingCF)
	f.InvestingCF = fromNullFloat(investingCF)
	f.FinancingCF = fromNullFloat(financingCF)
	f.OperatingMargin = fromNullFloat(operatingMargin)
	f.NetMargin = fromNullFloat(netMargin)
	f.ROA = fromNullFloat(roa)
	f.EquityRatio = fromNullFloat(equityRatio)
	return &f, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func fromNullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
