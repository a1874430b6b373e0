// Package model defines the core types shared across the OSINT aggregation core.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// QueryKind classifies what an investigative query is about.
type QueryKind string

const (
	KindKeyword  QueryKind = "keyword"
	KindUsername QueryKind = "username"
	KindHashtag  QueryKind = "hashtag"
	KindFullName QueryKind = "full_name"
	KindDomain   QueryKind = "domain"
	KindEmail    QueryKind = "email"
	KindURL      QueryKind = "url"
)

// ParseQueryKind converts a string into a QueryKind.
func ParseQueryKind(s string) (QueryKind, error) {
	switch s {
	case "keyword":
		return KindKeyword, nil
	case "username", "handle":
		return KindUsername, nil
	case "hashtag":
		return KindHashtag, nil
	case "full_name", "fullname":
		return KindFullName, nil
	case "domain":
		return KindDomain, nil
	case "email":
		return KindEmail, nil
	case "url":
		return KindURL, nil
	default:
		return "", eris.Errorf("unknown query kind: %q (valid: keyword, username, hashtag, full_name, domain, email, url)", s)
	}
}

// Technical reports whether the query kind follows the domain/DNS lookup path
// and is eligible for risk assessment.
func (k QueryKind) Technical() bool {
	return k == KindDomain || k == KindURL
}

// Filters narrows a query's result set. All fields are optional.
type Filters struct {
	Since      *time.Time `json:"since,omitempty"`
	Until      *time.Time `json:"until,omitempty"`
	Language   string     `json:"language,omitempty"`
	MaxResults int        `json:"max_results,omitempty"`
}

// Query is one user-initiated investigative lookup. It is created once per
// user action and never mutated.
type Query struct {
	Target  string    `json:"target"`
	Kind    QueryKind `json:"kind"`
	Filters Filters   `json:"filters,omitempty"`
}

// Validate checks that a query is well-formed before dispatch.
func (q Query) Validate() error {
	if q.Target == "" {
		return eris.New("model: query target is empty")
	}
	if _, err := ParseQueryKind(string(q.Kind)); err != nil {
		return eris.Wrap(err, "model: validate query")
	}
	if q.Filters.Since != nil && q.Filters.Until != nil && q.Filters.Until.Before(*q.Filters.Since) {
		return eris.New("model: query filter range is inverted")
	}
	return nil
}

// MaxResults returns the effective per-provider result cap.
func (q Query) MaxResults(defaultMax int) int {
	if q.Filters.MaxResults > 0 {
		return q.Filters.MaxResults
	}
	return defaultMax
}
