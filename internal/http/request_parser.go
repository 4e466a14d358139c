// This file implements utilities for parsing and validating HTTP request data:
// a body parser that accepts JSON and form encodings, and the query helpers
// shared by the API handlers.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"puntos/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 64 << 10

// ErrMalformedBody marks a body that could not be decoded at all.
var ErrMalformedBody = errors.New("malformed request body")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data. Every failure
// wraps ErrMalformedBody.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", ErrMalformedBody, p.err)
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.looksLikeJSON() {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("%w: %v", ErrMalformedBody, err)
			return p.err
		}
		return nil
	}

	form, err := url.ParseQuery(string(p.body))
	if err != nil {
		p.err = fmt.Errorf("%w: %v", ErrMalformedBody, err)
		return p.err
	}
	p.formData = form
	return nil
}

func (p *RequestBodyParser) looksLikeJSON() bool {
	if strings.HasPrefix(p.contentType, "application/json") {
		return true
	}
	trimmed := strings.TrimSpace(string(p.body))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ledgerEntry is the shared shape of an activity or redemption submission.
type ledgerEntry struct {
	Person string
	Name   string
	Date   core.Date
}

// parseLedgerEntry reads person, the item name under nameKey, and an
// optional date. An empty date stays zero so the service picks today.
func parseLedgerEntry(p *RequestBodyParser, nameKey string) (ledgerEntry, error) {
	e := ledgerEntry{
		Person: p.Get("person"),
		Name:   p.Get(nameKey),
	}
	if raw := p.Get("date"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return ledgerEntry{}, err
		}
		e.Date = d
	}
	return e, nil
}

// parseDays reads the rollup window length; empty means the default.
func parseDays(query url.Values) (int, error) {
	raw := strings.TrimSpace(query.Get("days"))
	if raw == "" {
		return core.DefaultRollupDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &core.ValidationError{Field: "days", Reason: fmt.Sprintf("%q is not a whole number", raw)}
	}
	return n, nil
}

// parseOptionalDate reads a YYYY-MM-DD query value; empty means zero.
func parseOptionalDate(query url.Values, key string) (core.Date, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: key, Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", raw)}
	}
	return d, nil
}
