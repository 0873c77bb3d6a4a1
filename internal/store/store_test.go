package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/config"
	"jobmate/vacancy-service/internal/model"
	"jobmate/vacancy-service/internal/store"
)

type fixture struct {
	store  *store.Store
	admin  *pgx.Conn
	schema string
}

// openTestStore connects to VACANCY_TEST_DATABASE_URL and isolates the test
// in a throwaway schema. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *fixture {
	t.Helper()

	url := os.Getenv("VACANCY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("VACANCY_TEST_DATABASE_URL must be set to run store tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		t.Fatalf("pgx.Connect: %v", err)
	}

	schema := fmt.Sprintf("vacancy_test_%d", time.Now().UnixNano())
	if _, err := conn.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := conn.Exec(ctx, "SET search_path TO "+schema); err != nil {
		t.Fatalf("set search_path: %v", err)
	}

	// A second connection drops the schema after the store has closed its own.
	admin, err := pgx.Connect(ctx, url)
	if err != nil {
		t.Fatalf("pgx.Connect (admin): %v", err)
	}

	s := store.New(conn, zerolog.Nop())
	t.Cleanup(func() {
		ctx := context.Background()
		s.Close(ctx)
		admin.Exec(ctx, "DROP SCHEMA "+schema+" CASCADE")
		admin.Close(ctx)
	})

	if err := s.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	return &fixture{store: s, admin: admin, schema: schema}
}

func decodePage(t *testing.T, data string) []model.VacancyRecord {
	t.Helper()
	var page model.Page
	if err := json.Unmarshal([]byte(data), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	return page.Items
}

func record(employerID int64, employer, name string, salary *string) model.VacancyRecord {
	r := model.VacancyRecord{
		Employer:     &model.Employer{ID: model.EmployerID(employerID), Name: employer},
		Name:         name,
		AlternateURL: "https://hh.ru/vacancy/" + name,
	}
	if salary != nil {
		to := model.SalaryBound(*salary)
		r.Salary = &model.Salary{To: &to}
	}
	return r
}

func str(s string) *string { return &s }

// ── Open ───────────────────────────────────────────────────────────────────

func TestOpen_ConnectionRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := store.Open(ctx, config.DatabaseConfig{
		Host:    "127.0.0.1",
		Port:    1,
		User:    "postgres",
		Name:    "hh",
		SSLMode: "disable",
	}, zerolog.Nop())
	if err == nil {
		t.Fatal("Open against a closed port returned nil error")
	}
	if s != nil {
		t.Errorf("Open returned a Store alongside error %v", err)
	}
}

// ── Schema ─────────────────────────────────────────────────────────────────

func TestCreateSchema_Idempotent(t *testing.T) {
	s := openTestStore(t).store
	ctx := context.Background()

	if err := s.CreateSchema(ctx); err != nil {
		t.Fatalf("second CreateSchema: %v", err)
	}
	counts, err := s.CompanyVacancyCounts(ctx)
	if err != nil {
		t.Fatalf("CompanyVacancyCounts: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("fresh schema has %d companies, want 0", len(counts))
	}
}

// ── Ingest ─────────────────────────────────────────────────────────────────

func TestIngest_SingleRecord(t *testing.T) {
	s := openTestStore(t).store
	ctx := context.Background()

	items := decodePage(t, `{"items":[{"employer":{"id":1,"name":"Acme"},"name":"Engineer","salary":{"to":1000},"alternate_url":"http://x"}]}`)
	stats, err := s.Ingest(ctx, items)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stats.CompaniesInserted != 1 || stats.VacanciesInserted != 1 {
		t.Errorf("stats = %+v, want 1 company and 1 vacancy", stats)
	}

	counts, err := s.CompanyVacancyCounts(ctx)
	if err != nil {
		t.Fatalf("CompanyVacancyCounts: %v", err)
	}
	if len(counts) != 1 || counts[0].Name != "Acme" || counts[0].VacanciesCount == nil || *counts[0].VacanciesCount != 4 {
		t.Errorf("counts = %+v, want [(Acme, 4)]", counts)
	}

	all, err := s.AllVacancies(ctx)
	if err != nil {
		t.Fatalf("AllVacancies: %v", err)
	}
	want := model.VacancyRow{CompanyName: "Acme", VacancyName: "Engineer", Salary: str("1000"), Link: "http://x"}
	if len(all) != 1 || all[0].CompanyName != want.CompanyName || all[0].VacancyName != want.VacancyName ||
		all[0].Salary == nil || *all[0].Salary != "1000" || all[0].Link != want.Link {
		t.Errorf("AllVacancies = %+v, want [%+v]", all, want)
	}
}

func TestIngest_FirstCompanyWins(t *testing.T) {
	s := openTestStore(t).store
	ctx := context.Background()

	first := decodePage(t, `{"items":[{"employer":{"id":7,"name":"Old Name"},"name":"A","salary":null,"alternate_url":"u1"}]}`)
	second := decodePage(t, `{"items":[{"employer":{"id":"7","name":"New Name"},"name":"B","salary":null,"alternate_url":"u2","area":{},"premium":true}]}`)

	if _, err := s.Ingest(ctx, first); err != nil {
		t.Fatalf("Ingest first: %v", err)
	}
	stats, err := s.Ingest(ctx, second)
	if err != nil {
		t.Fatalf("Ingest second: %v", err)
	}
	if stats.CompaniesInserted != 0 || stats.VacanciesInserted != 1 {
		t.Errorf("second stats = %+v, want 0 companies and 1 vacancy", stats)
	}

	counts, err := s.CompanyVacancyCounts(ctx)
	if err != nil {
		t.Fatalf("CompanyVacancyCounts: %v", err)
	}
	if len(counts) != 1 {
		t.Fatalf("got %d companies, want 1", len(counts))
	}
	if counts[0].Name != "Old Name" || *counts[0].VacanciesCount != 4 {
		t.Errorf("company = (%s, %d), want (Old Name, 4)", counts[0].Name, *counts[0].VacanciesCount)
	}

	all, err := s.AllVacancies(ctx)
	if err != nil {
		t.Fatalf("AllVacancies: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d vacancies, want 2", len(all))
	}
}

func TestIngest_DuplicateVacanciesAppended(t *testing.T) {
	s := openTestStore(t).store
	ctx := context.Background()

	batch := []model.VacancyRecord{record(1, "Acme", "Engineer", nil)}
	for i := 0; i < 2; i++ {
		if _, err := s.Ingest(ctx, batch); err != nil {
			t.Fatalf("Ingest #%d: %v", i, err)
		}
	}

	all, err := s.AllVacancies(ctx)
	if err != nil {
		t.Fatalf("AllVacancies: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d vacancies, want 2", len(all))
	}
}

func TestIngest_InvalidRecordWritesNothing(t *testing.T) {
	s := openTestStore(t).store
	ctx := context.Background()

	bad := record(2, "Beta", "", nil)
	_, err := s.Ingest(ctx, []model.VacancyRecord{record(1, "Acme", "Engineer", nil), bad})
	if !errors.Is(err, model.ErrMissingField) {
		t.Fatalf("Ingest error = %v, want ErrMissingField", err)
	}

	all, err := s.AllVacancies(ctx)
	if err != nil {
		t.Fatalf("AllVacancies: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d vacancies after rejected batch, want 0", len(all))
	}
}

func TestIngest_NullSalaryStoredAsNull(t *testing.T) {
	s := openTestStore(t).store
	ctx := context.Background()

	if _, err := s.Ingest(ctx, []model.VacancyRecord{record(1, "Acme", "Intern", nil)}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	all, err := s.AllVacancies(ctx)
	if err != nil {
		t.Fatalf("AllVacancies: %v", err)
	}
	if len(all) != 1 || all[0].Salary != nil {
		t.Errorf("AllVacancies = %+v, want one row with nil salary", all)
	}
}

// ── Salary queries ─────────────────────────────────────────────────────────

func ingestSalaries(t *testing.T, s *store.Store) {
	t.Helper()
	batch := []model.VacancyRecord{
		record(1, "Acme", "Junior", str("1000")),
		record(1, "Acme", "Middle", str("2 000")),
		record(2, "Beta", "Senior", str("3000")),
		record(2, "Beta", "Intern", nil),
	}
	if _, err := s.Ingest(context.Background(), batch); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
}

func TestAverageSalary(t *testing.T) {
	s := openTestStore(t).store
	ingestSalaries(t, s)

	avg, ok, err := s.AverageSalary(context.Background())
	if err != nil {
		t.Fatalf("AverageSalary: %v", err)
	}
	if !ok || avg != 2000 {
		t.Errorf("AverageSalary = (%v, %v), want (2000, true)", avg, ok)
	}
}

func TestAverageSalary_NoSalaries(t *testing.T) {
	s := openTestStore(t).store
	if _, err := s.Ingest(context.Background(), []model.VacancyRecord{record(1, "Acme", "Intern", nil)}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	_, ok, err := s.AverageSalary(context.Background())
	if err != nil {
		t.Fatalf("AverageSalary: %v", err)
	}
	if ok {
		t.Error("AverageSalary ok = true with no salaries, want false")
	}
}

func TestAverageSalary_InvalidSalary(t *testing.T) {
	s := openTestStore(t).store
	if _, err := s.Ingest(context.Background(), []model.VacancyRecord{record(1, "Acme", "Odd", str("negotiable"))}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	_, _, err := s.AverageSalary(context.Background())
	if !errors.Is(err, model.ErrInvalidSalary) {
		t.Errorf("AverageSalary error = %v, want ErrInvalidSalary", err)
	}
}

func TestAboveAverageSalary(t *testing.T) {
	s := openTestStore(t).store
	ingestSalaries(t, s)

	rows, err := s.AboveAverageSalary(context.Background())
	if err != nil {
		t.Fatalf("AboveAverageSalary: %v", err)
	}
	if len(rows) != 1 || rows[0].VacancyName != "Senior" || *rows[0].Salary != "3000" {
		t.Errorf("AboveAverageSalary = %+v, want only Senior/3000", rows)
	}
}

func TestAboveAverageSalary_Empty(t *testing.T) {
	s := openTestStore(t).store

	rows, err := s.AboveAverageSalary(context.Background())
	if err != nil {
		t.Fatalf("AboveAverageSalary: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("AboveAverageSalary on empty store = %+v", rows)
	}
}

// ── Keyword search ─────────────────────────────────────────────────────────

func names(rows []model.VacancyRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.VacancyName)
	}
	sort.Strings(out)
	return out
}

func TestSearchByKeyword(t *testing.T) {
	s := openTestStore(t).store
	ctx := context.Background()

	batch := []model.VacancyRecord{
		record(1, "Acme", "Engineer", nil),
		record(1, "Acme", "Senior Engineering Lead", nil),
		record(1, "Acme", "Designer", nil),
		record(1, "Acme", "100% remote QA", nil),
	}
	if _, err := s.Ingest(ctx, batch); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	cases := []struct {
		keyword string
		want    []string
	}{
		{"eng", []string{"Engineer", "Senior Engineering Lead"}},
		{"ENG", []string{"Engineer", "Senior Engineering Lead"}},
		{"designer", []string{"Designer"}},
		{"%", []string{"100% remote QA"}},
		{"_", []string{}},
		{"", []string{"100% remote QA", "Designer", "Engineer", "Senior Engineering Lead"}},
	}
	for _, c := range cases {
		rows, err := s.SearchByKeyword(ctx, c.keyword)
		if err != nil {
			t.Fatalf("SearchByKeyword(%q): %v", c.keyword, err)
		}
		got := names(rows)
		if fmt.Sprint(got) != fmt.Sprint(c.want) {
			t.Errorf("SearchByKeyword(%q) = %v, want %v", c.keyword, got, c.want)
		}
	}
}

// ── Join semantics ─────────────────────────────────────────────────────────

func TestAllVacancies_ExcludesOrphans(t *testing.T) {
	f := openTestStore(t)
	s := f.store
	ctx := context.Background()

	if _, err := s.Ingest(ctx, []model.VacancyRecord{record(1, "Acme", "Engineer", nil)}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// The foreign key allows NULL, which is the only way to get a vacancy
	// without a company row.
	if _, err := f.admin.Exec(ctx,
		`INSERT INTO `+f.schema+`.vacancies (company_id, name, salary, link) VALUES (NULL, 'Orphan', '5000', 'u')`,
	); err != nil {
		t.Fatalf("insert orphan: %v", err)
	}

	all, err := s.AllVacancies(ctx)
	if err != nil {
		t.Fatalf("AllVacancies: %v", err)
	}
	if got := names(all); fmt.Sprint(got) != "[Engineer]" {
		t.Errorf("AllVacancies = %v, want [Engineer]", got)
	}
}
