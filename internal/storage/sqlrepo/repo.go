package sqlrepo

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"reviewit/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(t time.Time, ok bool) any {
	if !ok {
		return nil
	}
	return t
}
func valSentiment(s domain.Sentiment) any {
	switch s {
	case domain.SentimentPositive:
		return true
	case domain.SentimentNegative:
		return false
	}
	return nil
}

// Repo is the relational review store. It serves as ReviewSource and
// Directory for the API and as ReviewStore for the ingestor.
type Repo struct {
	db *sqlx.DB
	d  dialect
}

// New picks the statement dialect from the sqlx driver name.
func New(db *sqlx.DB) *Repo {
	d := mysqlDialect
	if db.DriverName() == "postgres" {
		d = postgresDialect
	}
	return &Repo{db: db, d: d}
}

// Open connects and pings. driver is "mysql" or "postgres"; the caller
// imports the driver package.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return db, nil
}

/********** Directory **********/

func (r *Repo) Company(ctx context.Context, id int64) (domain.Company, error) {
	var c domain.Company
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(getCompanySQL), id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Company{}, domain.InvalidReference("unknown company id " + strconv.FormatInt(id, 10))
	}
	return c, err
}

func (r *Repo) Companies(ctx context.Context) ([]domain.Company, error) {
	var rows []struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, listCompaniesSQL); err != nil {
		return nil, err
	}
	out := make([]domain.Company, len(rows))
	for i, row := range rows {
		out[i] = domain.Company{ID: row.ID, Name: row.Name}
	}
	return out, nil
}

func (r *Repo) Department(ctx context.Context, id int64) (domain.Department, error) {
	var d domain.Department
	var desc sql.NullString
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(getDepartmentSQL), id).Scan(&d.ID, &d.Name, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Department{}, domain.InvalidReference("unknown department id " + strconv.FormatInt(id, 10))
	}
	d.Description = desc.String
	return d, err
}

/********** ReviewSource **********/

type reviewRow struct {
	ID          int64           `db:"id"`
	CompanyID   int64           `db:"company_id"`
	CompanyName string          `db:"company_name"`
	Content     sql.NullString  `db:"content"`
	CleanedText sql.NullString  `db:"cleaned_text"`
	Date        sql.NullTime    `db:"date"`
	Likes       sql.NullInt64   `db:"likes"`
	Positive    sql.NullBool    `db:"positive"`
	Score       sql.NullFloat64 `db:"score"`
}

// raw keeps NULLs out of the map so the normalizer sees them as missing.
func (row reviewRow) raw(department string) domain.RawRow {
	m := domain.RawRow{
		"id":           row.ID,
		"company_id":   row.CompanyID,
		"company_name": row.CompanyName,
		"content":      row.Content.String,
		"cleaned_text": row.CleanedText.String,
		"likes":        row.Likes.Int64,
	}
	if row.Date.Valid {
		m["date"] = row.Date.Time
	}
	if row.Positive.Valid {
		m["positive"] = row.Positive.Bool
	}
	if row.Score.Valid {
		m["score"] = row.Score.Float64
	}
	if department != "" {
		m["department"] = department
	}
	return m
}

// Fetch reads one company's reviews, or one department's when scoped.
// Stored cleaned_text is always space-delimited.
func (r *Repo) Fetch(ctx context.Context, scope domain.Scope) (domain.SourceBatch, error) {
	var rows []reviewRow
	var err error
	dept := ""
	if scope.Department != nil {
		dept = scope.Department.Name
		err = r.db.SelectContext(ctx, &rows, r.db.Rebind(departmentReviewsSQL), scope.Department.ID, scope.Company.ID)
	} else {
		err = r.db.SelectContext(ctx, &rows, r.db.Rebind(companyReviewsSQL), scope.Company.ID)
	}
	if err != nil {
		return domain.SourceBatch{}, fmt.Errorf("select reviews for company %d: %w", scope.Company.ID, err)
	}
	b := domain.SourceBatch{Company: scope.Company, Delimiter: domain.DelimSpace, Rows: make([]domain.RawRow, len(rows))}
	for i, row := range rows {
		b.Rows[i] = row.raw(dept)
	}
	return b, nil
}

/********** ReviewStore **********/

func (r *Repo) UpsertCompany(ctx context.Context, c domain.Company) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(r.d.upsertCompany), c.ID, c.Name)
	return err
}

// InsertReviews upserts by a content signature, so re-ingesting the same
// file is idempotent. Department links are resolved by department name.
func (r *Repo) InsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	upsert, link := tx.Rebind(r.d.upsertReview), tx.Rebind(r.d.linkDept)
	for _, rv := range rs {
		hash := SourceHash(rv)
		if _, err := tx.ExecContext(ctx, upsert,
			rv.CompanyID,
			hash,
			valStr(rv.Content),
			valStr(strings.Join(rv.Keywords, " ")),
			valTime(rv.Date, rv.HasDate()),
			rv.Likes,
			valSentiment(rv.Sentiment),
			valF64(rv.Score),
		); err != nil {
			return fmt.Errorf("upsert review %s: %w", hash[:8], err)
		}
		if rv.Department != "" {
			if _, err := tx.ExecContext(ctx, link, rv.Department, hash); err != nil {
				return fmt.Errorf("link review %s to %q: %w", hash[:8], rv.Department, err)
			}
		}
	}
	return tx.Commit()
}

func (r *Repo) LogMiss(ctx context.Context, companyID int64, reason string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(r.d.insertMiss), companyID, reason)
	return err
}

// SourceHash is a stable signature of a review's identifying fields.
func SourceHash(rv domain.Review) string {
	date := ""
	if rv.HasDate() {
		date = rv.Date.UTC().Format(time.RFC3339)
	}
	sig := strings.Join([]string{strconv.FormatInt(rv.CompanyID, 10), date, rv.Content, strings.Join(rv.Keywords, " ")}, "|")
	sum := sha1.Sum([]byte(sig))
	return hex.EncodeToString(sum[:])
}
