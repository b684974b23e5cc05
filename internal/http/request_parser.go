// Package http serves the local web UI and the JSON API.
//
// This file implements utilities for parsing and validating HTTP request data.
// Handlers accept both form posts from the UI and JSON bodies from scripts,
// so every field goes through the same parser.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
)

// maxBodyBytes bounds request bodies; a full backup is the largest.
const maxBodyBytes = 8 << 20

var (
	ErrBodyTooLarge = errors.New("request body too large")
	ErrMissingID    = errors.New("missing id")
)

// ParsePeriodParam reads ?period=, defaulting to a month.
func ParsePeriodParam(query url.Values) (core.Period, error) {
	return core.ParsePeriod(query.Get("period"))
}

// IntParam reads an integer query parameter, returning def when absent.
func IntParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: not a whole number", key)
	}
	return n, nil
}

// DecimalParam reads a non-negative decimal query parameter, returning def
// when absent. Comma and dot separators are both accepted.
func DecimalParam(query url.Values, key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDecimal(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	query       url.Values
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
		query:       r.URL.Query(),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = ErrBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]interface{})
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form), falling
// back to the query string.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		if v := p.formData.Get(key); v != "" {
			return strings.TrimSpace(sanitizeInput(v))
		}
	}
	return strings.TrimSpace(sanitizeInput(p.query.Get(key)))
}

// ID reads a positive integer identifier.
func (p *RequestBodyParser) ID(key string) (int64, error) {
	v := p.Get(key)
	if v == "" {
		return 0, ErrMissingID
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", v)
	}
	return id, nil
}

// Money reads a positive amount in major units.
func (p *RequestBodyParser) Money(key string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(p.Get(key))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// OptionalMoney is Money that treats a blank field as zero.
func (p *RequestBodyParser) OptionalMoney(key string) (core.Money, error) {
	if p.Get(key) == "" {
		return core.Money{}, nil
	}
	d, err := core.ParseDecimal(p.Get(key))
	if err != nil {
		return core.Money{}, err
	}
	cents, err := core.DecimalToCents(d, true)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET is a convenience function for read-only handlers.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}
