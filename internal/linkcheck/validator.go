// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package linkcheck validates outbound affiliate and partner links. A link
// is healthy when the target answers with an acceptable status and the
// page body does not look like a soft error.
package linkcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nomadscope/nomadscope/internal/logging"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 2.0 // requests per second
	maxBodyBytes     = 256 << 10
)

// validStatuses are the response codes treated as a live link. Redirect
// codes count because affiliate networks front links with trackers.
var validStatuses = map[int]bool{
	http.StatusOK:                true,
	http.StatusMovedPermanently:  true,
	http.StatusFound:             true,
	http.StatusSeeOther:          true,
	http.StatusTemporaryRedirect: true,
	http.StatusPermanentRedirect: true,
}

// softErrorPhrases mark pages that return 200 but no longer work.
var softErrorPhrases = []string{
	"page not found",
	"404 error",
	"access denied",
	"forbidden",
	"server error",
	"maintenance",
}

// Link is one outbound link to validate.
type Link struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Result is the verdict for a single link.
type Result struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Valid      bool   `json:"valid"`
	StatusCode int    `json:"status_code,omitempty"`
	Reason     string `json:"reason,omitempty"`
	CheckedAt  string `json:"checked_at"`
}

// Report tallies a ValidateAll run.
type Report struct {
	Checked int      `json:"checked"`
	Success int      `json:"success"`
	Failure int      `json:"failure"`
	Details []Result `json:"details"`
}

// Config controls validation behavior.
type Config struct {
	// Timeout bounds one HTTP fetch. Defaults to 10s.
	Timeout time.Duration
	// RatePerSecond throttles ValidateAll. Defaults to 2 req/s.
	RatePerSecond float64
	// UserAgent identifies the checker to remote hosts.
	UserAgent string
}

// Validator checks links over HTTP.
type Validator struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	clock   func() time.Time
}

// NewValidator creates a validator. Zero config fields get defaults.
func NewValidator(cfg Config) *Validator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = defaultRateLimit
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "nomadscope-linkcheck/1.0"
	}
	return &Validator{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		clock:   time.Now,
	}
}

// Check fetches the link once and returns the verdict. Network failures
// produce an invalid result, not an error; the error return is reserved
// for context cancellation.
func (v *Validator) Check(ctx context.Context, link Link) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{
		ID:        link.ID,
		URL:       link.URL,
		CheckedAt: v.clock().UTC().Format(time.RFC3339),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		res.Reason = fmt.Sprintf("invalid url: %v", err)
		return res, nil
	}
	req.Header.Set("User-Agent", v.cfg.UserAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		res.Reason = fmt.Sprintf("request failed: %v", err)
		return res, nil
	}
	defer resp.Body.Close() //nolint:errcheck

	res.StatusCode = resp.StatusCode
	if !validStatuses[resp.StatusCode] {
		res.Reason = fmt.Sprintf("unacceptable status %d", resp.StatusCode)
		return res, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		res.Reason = fmt.Sprintf("read body: %v", err)
		return res, nil
	}

	lower := strings.ToLower(string(body))
	for _, phrase := range softErrorPhrases {
		if strings.Contains(lower, phrase) {
			res.Reason = fmt.Sprintf("soft error phrase %q in body", phrase)
			return res, nil
		}
	}

	res.Valid = true
	return res, nil
}

// ValidateAll checks every link under the rate limit, committing each
// result to onResult as it lands so partial runs still persist verdicts.
// A canceled context stops between items and returns the partial report.
func (v *Validator) ValidateAll(ctx context.Context, links []Link, onResult func(Result)) (Report, error) {
	report := Report{Details: make([]Result, 0, len(links))}

	for _, link := range links {
		if err := v.limiter.Wait(ctx); err != nil {
			return report, err
		}

		res, err := v.Check(ctx, link)
		if err != nil {
			return report, err
		}

		report.Checked++
		if res.Valid {
			report.Success++
		} else {
			report.Failure++
			logging.Debug().
				Str("link_id", res.ID).
				Str("url", res.URL).
				Str("reason", res.Reason).
				Msg("link failed validation")
		}
		report.Details = append(report.Details, res)
		if onResult != nil {
			onResult(res)
		}
	}

	return report, nil
}
