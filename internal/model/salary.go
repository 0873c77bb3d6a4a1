package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidSalary is returned when a stored salary is not an integer once
// spaces are removed.
var ErrInvalidSalary = errors.New("invalid salary")

// ParseSalary strips embedded whitespace ("2 000", "150 000" with NBSP) and
// parses the remainder as an integer.
func ParseSalary(raw string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSalary, raw)
	}
	return v, nil
}

// MeanSalary returns the arithmetic mean of the parsed salaries. ok is false
// when values is empty.
func MeanSalary(values []string) (mean float64, ok bool, err error) {
	if len(values) == 0 {
		return 0, false, nil
	}

	var sum int64
	for _, raw := range values {
		v, err := ParseSalary(raw)
		if err != nil {
			return 0, false, err
		}
		sum += v
	}
	return float64(sum) / float64(len(values)), true, nil
}

// AboveSalary keeps the rows whose parsed salary is strictly greater than
// threshold. Rows without a salary are dropped.
func AboveSalary(rows []VacancyRow, threshold float64) ([]VacancyRow, error) {
	out := make([]VacancyRow, 0)
	for _, row := range rows {
		if row.Salary == nil {
			continue
		}
		v, err := ParseSalary(*row.Salary)
		if err != nil {
			return nil, err
		}
		if float64(v) > threshold {
			out = append(out, row)
		}
	}
	return out, nil
}
