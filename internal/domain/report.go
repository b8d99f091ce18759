package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Report is a raw Lighthouse result (LHR) document.
type Report json.RawMessage

// CategorySummary is the abbreviated form of an LHR category.
type CategorySummary struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Score *float64 `json:"score"`
}

// ReportSummary holds the LHR fields needed to render a report page.
type ReportSummary struct {
	RequestedURL      string                     `json:"requestedUrl"`
	FinalURL          string                     `json:"finalUrl"`
	FetchTime         string                     `json:"fetchTime"`
	LighthouseVersion string                     `json:"lighthouseVersion"`
	UserAgent         string                     `json:"userAgent"`
	Categories        map[string]CategorySummary `json:"categories"`
	RuntimeError      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"runtimeError,omitempty"`
}

// ParseReport validates raw engine output. Anything that is not a JSON object
// is rejected.
func ParseReport(raw []byte) (Report, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("lighthouse audit did not return a report")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("lighthouse audit did not return a valid report: %w", err)
	}
	if probe == nil {
		return nil, errors.New("lighthouse audit did not return a valid report")
	}

	out := make(Report, len(raw))
	copy(out, raw)
	return out, nil
}

func (r Report) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

func (r *Report) UnmarshalJSON(data []byte) error {
	if r == nil {
		return errors.New("domain.Report: UnmarshalJSON on nil pointer")
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}
	*r = append((*r)[0:0], data...)
	return nil
}

// Compact returns the canonical compact encoding of the report.
func (r Report) Compact() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r Report) Categories() (map[string]CategorySummary, error) {
	summary, err := r.Summary()
	if err != nil {
		return nil, err
	}
	return summary.Categories, nil
}

func (r Report) Summary() (*ReportSummary, error) {
	var summary ReportSummary
	if err := json.Unmarshal(r, &summary); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	for key, category := range summary.Categories {
		if category.ID == "" {
			category.ID = key
			summary.Categories[key] = category
		}
	}
	return &summary, nil
}

// SortedCategories returns categories ordered by id.
func (s *ReportSummary) SortedCategories() []CategorySummary {
	out := make([]CategorySummary, 0, len(s.Categories))
	for _, c := range s.Categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
