package sqlrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"reviewit/internal/domain"
	"reviewit/internal/storage/sqlrepo"
)

func newMock(t *testing.T, driver string) (*sqlrepo.Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlrepo.New(sqlx.NewDb(db, driver)), mock
}

var reviewCols = []string{"id", "company_id", "company_name", "content", "cleaned_text", "date", "likes", "positive", "score"}

func TestRepo_FetchCompany(t *testing.T) {
	repo, mock := newMock(t, "mysql")
	when := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	mock.ExpectQuery("FROM reviews r").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(reviewCols).
			AddRow(int64(10), int64(3), "gmarket", "빠른 배송", "배송 빠르다", when, int64(2), true, 4.5).
			AddRow(int64(11), int64(3), "gmarket", nil, nil, nil, nil, nil, nil))

	b, err := repo.Fetch(context.Background(), domain.Scope{Company: domain.Company{ID: 3, Name: "gmarket"}})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if b.Delimiter != domain.DelimSpace || b.Company.Name != "gmarket" || len(b.Rows) != 2 {
		t.Fatalf("unexpected batch: %+v", b)
	}
	first := b.Rows[0]
	if first["positive"] != true || first["score"] != 4.5 || first["date"] != when || first["cleaned_text"] != "배송 빠르다" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	second := b.Rows[1]
	for _, k := range []string{"date", "positive", "score"} {
		if _, ok := second[k]; ok {
			t.Fatalf("NULL %s must be absent from the raw row: %+v", k, second)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRepo_FetchDepartment_Postgres(t *testing.T) {
	repo, mock := newMock(t, "postgres")

	mock.ExpectQuery(`(?s)JOIN review_department rd .* WHERE rd.department_id = \$1 AND r.company_id = \$2`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows(reviewCols).
			AddRow(int64(1), int64(1), "coupang", "친절", "친절", time.Now(), int64(0), false, nil))

	dept := &domain.Department{ID: 7, Name: "CS"}
	b, err := repo.Fetch(context.Background(), domain.Scope{Company: domain.Company{ID: 1, Name: "coupang"}, Department: dept})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(b.Rows) != 1 || b.Rows[0]["department"] != "CS" || b.Rows[0]["positive"] != false {
		t.Fatalf("unexpected rows: %+v", b.Rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRepo_CompanyLookup(t *testing.T) {
	repo, mock := newMock(t, "mysql")

	mock.ExpectQuery("SELECT id, name FROM companies WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "coupang"))
	mock.ExpectQuery("SELECT id, name FROM companies WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	c, err := repo.Company(context.Background(), 1)
	if err != nil || c.Name != "coupang" {
		t.Fatalf("Company(1) = %+v, %v", c, err)
	}
	_, err = repo.Company(context.Background(), 99)
	if domain.KindOf(err) != domain.KindInvalidReference {
		t.Fatalf("expected invalid_reference, got %v", err)
	}
}

func TestRepo_Companies(t *testing.T) {
	repo, mock := newMock(t, "mysql")
	mock.ExpectQuery("FROM companies ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "coupang").AddRow(int64(2), "temu"))

	cs, err := repo.Companies(context.Background())
	if err != nil {
		t.Fatalf("Companies: %v", err)
	}
	if len(cs) != 2 || cs[1].Name != "temu" {
		t.Fatalf("unexpected companies: %+v", cs)
	}
}

func TestRepo_DepartmentUnknown(t *testing.T) {
	repo, mock := newMock(t, "mysql")
	mock.ExpectQuery("FROM department WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}))

	_, err := repo.Department(context.Background(), 5)
	if domain.KindOf(err) != domain.KindInvalidReference {
		t.Fatalf("expected invalid_reference, got %v", err)
	}
}

func TestRepo_InsertReviews(t *testing.T) {
	repo, mock := newMock(t, "mysql")
	score := 5.0
	rv := domain.Review{
		CompanyID:  1,
		Content:    "좋아요",
		Keywords:   []string{"좋다", "배송"},
		Date:       time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Sentiment:  domain.SentimentPositive,
		Score:      &score,
		Department: "물류",
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(int64(1), sqlrepo.SourceHash(rv), "좋아요", "좋다 배송", rv.Date, 0, true, 5.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT IGNORE INTO review_department").
		WithArgs("물류", sqlrepo.SourceHash(rv)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.InsertReviews(context.Background(), []domain.Review{rv}); err != nil {
		t.Fatalf("InsertReviews: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRepo_InsertReviews_UnknownFieldsAsNull(t *testing.T) {
	repo, mock := newMock(t, "postgres")
	rv := domain.Review{CompanyID: 2, Issues: domain.IssueBadDate | domain.IssueBadSentiment}

	mock.ExpectBegin()
	mock.ExpectExec(`ON CONFLICT \(source_hash\)`).
		WithArgs(int64(2), sqlmock.AnyArg(), nil, nil, nil, 0, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.InsertReviews(context.Background(), []domain.Review{rv}); err != nil {
		t.Fatalf("InsertReviews: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRepo_LogMissAndUpsertCompany(t *testing.T) {
	repo, mock := newMock(t, "mysql")
	mock.ExpectExec("INSERT INTO companies").WithArgs(int64(4), "11st").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ingest_misses").WithArgs(int64(4), "not found").WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	if err := repo.UpsertCompany(ctx, domain.Company{ID: 4, Name: "11st"}); err != nil {
		t.Fatalf("UpsertCompany: %v", err)
	}
	if err := repo.LogMiss(ctx, 4, "not found"); err != nil {
		t.Fatalf("LogMiss: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
