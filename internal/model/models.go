// Package model defines the vacancy records consumed from the hh.ru API and
// the row shapes returned by the store.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// modelledFields is the number of top-level keys VacancyRecord maps.
const modelledFields = 4

// Page mirrors one page of the hh.ru /vacancies response. The ingest API
// accepts the same {"items": [...]} envelope.
type Page struct {
	Items   []VacancyRecord `json:"items"`
	Found   int             `json:"found"`
	Page    int             `json:"page"`
	Pages   int             `json:"pages"`
	PerPage int             `json:"per_page"`
}

// VacancyRecord is a single vacancy as published by the recruitment API.
// Only the fields below are persisted; anything else on the wire is ignored
// except for the key count reported by FieldCount.
type VacancyRecord struct {
	Employer     *Employer `json:"employer" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	Salary       *Salary   `json:"salary"`
	AlternateURL string    `json:"alternate_url" validate:"required"`

	fieldCount int
}

// Employer is the company that owns a vacancy.
type Employer struct {
	ID   EmployerID `json:"id" validate:"required"`
	Name string     `json:"name" validate:"required"`
}

// Salary is the offered salary range. Only the upper bound is stored.
type Salary struct {
	From     *SalaryBound `json:"from"`
	To       *SalaryBound `json:"to"`
	Currency string       `json:"currency,omitempty"`
}

// UnmarshalJSON decodes the record and remembers how many top-level keys it
// carried.
func (r *VacancyRecord) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	type plain VacancyRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	*r = VacancyRecord(p)
	r.fieldCount = len(keys)
	return nil
}

// FieldCount returns the number of top-level fields present on the record.
// This is what gets stored as companies.vacancies_count. Records built in
// code rather than decoded report the number of modelled fields.
func (r *VacancyRecord) FieldCount() int {
	if r.fieldCount > 0 {
		return r.fieldCount
	}
	return modelledFields
}

// SalaryText returns the salary upper bound as stored in vacancies.salary,
// or nil when the record has no salary or no upper bound.
func (r *VacancyRecord) SalaryText() *string {
	if r.Salary == nil || r.Salary.To == nil {
		return nil
	}
	s := string(*r.Salary.To)
	return &s
}

// EmployerID is the external employer identifier. hh.ru sends it as a
// numeric string; plain JSON numbers are accepted too.
type EmployerID int64

// UnmarshalJSON accepts 1740 and "1740".
func (id *EmployerID) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(data, `"`)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("employer id %s: %w", data, err)
	}
	*id = EmployerID(v)
	return nil
}

// SalaryBound keeps a salary bound as the text it arrived as, number or
// string, e.g. 1000 or "2 000".
type SalaryBound string

// UnmarshalJSON stores numbers verbatim and unquotes strings.
func (b *SalaryBound) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = SalaryBound(s)
		return nil
	}
	*b = SalaryBound(data)
	return nil
}

// CompanyCount is one row of the company/vacancy-count listing.
type CompanyCount struct {
	Name           string `json:"name"`
	VacanciesCount *int   `json:"vacanciesCount"`
}

// VacancyRow is the four-column projection shared by every vacancy listing.
type VacancyRow struct {
	CompanyName string  `json:"companyName"`
	VacancyName string  `json:"vacancyName"`
	Salary      *string `json:"salary"`
	Link        string  `json:"link"`
}

// IngestStats reports what a single ingest call wrote.
type IngestStats struct {
	Records           int `json:"records"`
	CompaniesInserted int `json:"companiesInserted"`
	VacanciesInserted int `json:"vacanciesInserted"`
}
