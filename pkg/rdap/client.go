// Package rdap wraps the RDAP (Registration Data Access Protocol) bootstrap
// service for domain registration lookups. RDAP is the structured successor
// to WHOIS, so responses parse without per-registrar text scraping.
package rdap

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/newsward/osint-core/internal/fetcher"
)

const defaultBaseURL = "https://rdap.org"

// Client looks up domain registration data.
type Client interface {
	Domain(ctx context.Context, domain string) (*DomainResponse, error)
}

// DomainResponse is the subset of the RDAP domain object the core consumes.
type DomainResponse struct {
	LDHName  string   `json:"ldhName"`
	Handle   string   `json:"handle"`
	Status   []string `json:"status"`
	Events   []Event  `json:"events"`
	Entities []Entity `json:"entities"`
}

// Event is a dated lifecycle event on the registration.
type Event struct {
	Action string    `json:"eventAction"` // "registration", "expiration", "last changed"
	Date   time.Time `json:"eventDate"`
}

// Entity is a registrar or registrant contact attached to the domain.
type Entity struct {
	Roles   []string `json:"roles"`
	Handle  string   `json:"handle"`
	VCard   []any    `json:"vcardArray"`
	Remarks []Remark `json:"remarks"`
}

// Remark is free-form registrar commentary; privacy services announce
// themselves here.
type Remark struct {
	Title       string   `json:"title"`
	Description []string `json:"description"`
}

// RegisteredAt returns the registration event date, if present.
func (d *DomainResponse) RegisteredAt() (time.Time, bool) {
	for _, ev := range d.Events {
		if ev.Action == "registration" {
			return ev.Date, true
		}
	}
	return time.Time{}, false
}

// PrivacyProtected reports whether the registrant appears to be behind a
// privacy/proxy service, either via RDAP status values or redaction remarks.
func (d *DomainResponse) PrivacyProtected() bool {
	for _, s := range d.Status {
		if strings.Contains(s, "private") || strings.Contains(s, "proxy") {
			return true
		}
	}
	for _, ent := range d.Entities {
		for _, rm := range ent.Remarks {
			joined := strings.ToLower(rm.Title + " " + strings.Join(rm.Description, " "))
			if strings.Contains(joined, "redacted") || strings.Contains(joined, "privacy") {
				return true
			}
		}
	}
	return false
}

// Registrar returns the registrar entity handle, if any.
func (d *DomainResponse) Registrar() string {
	for _, ent := range d.Entities {
		for _, role := range ent.Roles {
			if role == "registrar" {
				return ent.Handle
			}
		}
	}
	return ""
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default RDAP bootstrap URL. Empty values are
// ignored.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

type httpClient struct {
	baseURL string
	fetcher *fetcher.HTTPFetcher
}

// NewClient creates an RDAP client on top of the shared fetcher.
func NewClient(f *fetcher.HTTPFetcher, opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		fetcher: f,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Domain(ctx context.Context, domain string) (*DomainResponse, error) {
	if domain == "" {
		return nil, eris.New("rdap: empty domain")
	}

	var resp DomainResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/domain/"+url.PathEscape(domain), nil, &resp); err != nil {
		return nil, eris.Wrap(err, "rdap: domain lookup")
	}
	return &resp, nil
}
