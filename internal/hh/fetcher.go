// Package hh fetches vacancy records from the hh.ru public API.
package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/config"
	"jobmate/vacancy-service/internal/logger"
	"jobmate/vacancy-service/internal/model"
)

const (
	httpTimeout = 15 * time.Second

	// maxBodyBytes bounds a single page; 100 items is well under 4 MiB.
	maxBodyBytes = 8 << 20
	// maxErrorBody is how much of a failed response is quoted in the error.
	maxErrorBody = 512
)

// Fetcher pages through /vacancies for one employer at a time.
type Fetcher struct {
	baseURL   string
	userAgent string
	perPage   int
	maxPages  int
	client    *http.Client
	log       zerolog.Logger
}

// NewFetcher constructs a fetcher with a shared HTTP client.
func NewFetcher(cfg config.HHConfig, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		perPage:   cfg.PerPage,
		maxPages:  cfg.MaxPages,
		client:    &http.Client{Timeout: httpTimeout},
		log:       logger.Component(log, "hh"),
	}
}

// Fetch retrieves the employer's open vacancies, page by page, until the last
// page reported by the API or maxPages is reached.
func (f *Fetcher) Fetch(ctx context.Context, employerID int64) ([]model.VacancyRecord, error) {
	var records []model.VacancyRecord

	for page := 0; page < f.maxPages; page++ {
		resp, err := f.fetchPage(ctx, employerID, page)
		if err != nil {
			return records, fmt.Errorf("page %d: %w", page, err)
		}
		records = append(records, resp.Items...)

		if len(resp.Items) == 0 || page+1 >= resp.Pages {
			break
		}
	}

	f.log.Debug().Int64("employer_id", employerID).Int("records", len(records)).Msg("fetched vacancies")
	return records, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, employerID int64, page int) (*model.Page, error) {
	params := url.Values{}
	params.Set("employer_id", strconv.FormatInt(employerID, 10))
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(f.perPage))

	reqURL := f.baseURL + "/vacancies?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	// hh.ru rejects requests without a descriptive User-Agent.
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hh.ru returned %d: %s", resp.StatusCode, truncate(body, maxErrorBody))
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)
	}

	var p model.Page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return &p, nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "...(truncated)"
}
