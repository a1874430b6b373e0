package provider

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/newsward/osint-core/internal/model"
	"github.com/newsward/osint-core/pkg/rdap"
)

// Resolver is the DNS lookup surface the adapter needs. Wrapping
// *net.Resolver behind this interface keeps the adapter testable without
// live DNS.
type Resolver interface {
	LookupIP(ctx context.Context, host string) ([]net.IP, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// NetResolver adapts *net.Resolver to the Resolver interface.
type NetResolver struct {
	R *net.Resolver
}

func (n NetResolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	return n.R.LookupIP(ctx, "ip", host)
}

func (n NetResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return n.R.LookupMX(ctx, name)
}

func (n NetResolver) LookupNS(ctx context.Context, name string) ([]*net.NS, error) {
	return n.R.LookupNS(ctx, name)
}

func (n NetResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	return n.R.LookupTXT(ctx, name)
}

// DNSRecon is the technical adapter for domain targets: DNS records via the
// injected resolver plus registration data via RDAP. Its items carry no
// author or engagement; everything of interest lives in Metadata, which is
// also what the risk engine reads.
type DNSRecon struct {
	resolver Resolver
	rdap     rdap.Client
	timeout  time.Duration
	enabled  bool
}

// NewDNSRecon creates the DNS/registration adapter.
func NewDNSRecon(resolver Resolver, rdapClient rdap.Client, timeout time.Duration, enabled bool) *DNSRecon {
	return &DNSRecon{resolver: resolver, rdap: rdapClient, timeout: timeout, enabled: enabled}
}

// Descriptor implements Adapter.
func (d *DNSRecon) Descriptor() Descriptor {
	return Descriptor{
		ID: "dnsrecon",
		Capabilities: []model.QueryKind{
			model.KindDomain, model.KindURL, model.KindEmail,
		},
		Timeout:          d.timeout,
		EnabledByDefault: d.enabled,
	}
}

// Supports implements Adapter.
func (d *DNSRecon) Supports(kind model.QueryKind) bool {
	return d.Descriptor().Accepts(kind)
}

// Fetch implements Adapter.
func (d *DNSRecon) Fetch(ctx context.Context, query model.Query) (*RawResponse, error) {
	domain, err := targetDomain(query)
	if err != nil {
		return nil, err
	}

	raw := &RawResponse{}

	dnsOK := d.collectDNS(ctx, domain, raw)
	rdapOK := d.collectRDAP(ctx, domain, raw)

	switch {
	case !dnsOK && !rdapOK:
		return nil, eris.Errorf("dnsrecon: no data for %s", domain)
	case !dnsOK || !rdapOK:
		raw.Partial = true
	}

	return raw, nil
}

// collectDNS resolves A/MX/NS/TXT records and probes for wildcard DNS.
// Returns false when even the A lookup failed.
func (d *DNSRecon) collectDNS(ctx context.Context, domain string, raw *RawResponse) bool {
	ips, err := d.resolver.LookupIP(ctx, domain)
	if err != nil {
		raw.Warnings = append(raw.Warnings, fmt.Sprintf("dns A lookup failed: %v", err))
		return false
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, ip.String())
	}
	raw.Items = append(raw.Items, RawItem{
		ID:     domain + "/A",
		Kind:   model.EvidenceDNSRecord,
		Title:  "A " + domain,
		Body:   strings.Join(addrs, ", "),
		Weight: 0.9,
		Metadata: map[string]any{
			"record_type": "A",
			"values":      addrs,
			"ip_count":    len(addrs),
			"wildcard":    d.hasWildcard(ctx, domain),
		},
	})

	if mxs, err := d.resolver.LookupMX(ctx, domain); err == nil && len(mxs) > 0 {
		hosts := make([]string, 0, len(mxs))
		for _, mx := range mxs {
			hosts = append(hosts, mx.Host)
		}
		raw.Items = append(raw.Items, RawItem{
			ID:     domain + "/MX",
			Kind:   model.EvidenceDNSRecord,
			Title:  "MX " + domain,
			Body:   strings.Join(hosts, ", "),
			Weight: 0.8,
			Metadata: map[string]any{
				"record_type": "MX",
				"values":      hosts,
			},
		})
	}

	if nss, err := d.resolver.LookupNS(ctx, domain); err == nil && len(nss) > 0 {
		hosts := make([]string, 0, len(nss))
		for _, ns := range nss {
			hosts = append(hosts, ns.Host)
		}
		raw.Items = append(raw.Items, RawItem{
			ID:     domain + "/NS",
			Kind:   model.EvidenceDNSRecord,
			Title:  "NS " + domain,
			Body:   strings.Join(hosts, ", "),
			Weight: 0.7,
			Metadata: map[string]any{
				"record_type": "NS",
				"values":      hosts,
			},
		})
	}

	if txts, err := d.resolver.LookupTXT(ctx, domain); err == nil && len(txts) > 0 {
		raw.Items = append(raw.Items, RawItem{
			ID:     domain + "/TXT",
			Kind:   model.EvidenceDNSRecord,
			Title:  "TXT " + domain,
			Body:   strings.Join(txts, "\n"),
			Weight: 0.6,
			Metadata: map[string]any{
				"record_type": "TXT",
				"values":      txts,
				"has_spf":     hasSPF(txts),
			},
		})
	}

	return true
}

// collectRDAP fetches registration data. Returns false on lookup failure.
func (d *DNSRecon) collectRDAP(ctx context.Context, domain string, raw *RawResponse) bool {
	resp, err := d.rdap.Domain(ctx, domain)
	if err != nil {
		zap.L().Debug("dnsrecon: rdap lookup failed",
			zap.String("domain", domain),
			zap.Error(err),
		)
		raw.Warnings = append(raw.Warnings, fmt.Sprintf("rdap lookup failed: %v", err))
		return false
	}

	meta := map[string]any{
		"field":             "registration",
		"handle":            resp.Handle,
		"registrar":         resp.Registrar(),
		"privacy_protected": resp.PrivacyProtected(),
	}
	body := "registrar: " + resp.Registrar()
	if reg, ok := resp.RegisteredAt(); ok {
		meta["registered_at"] = reg.UTC().Format(time.RFC3339)
		body = fmt.Sprintf("registered %s, %s", reg.UTC().Format("2006-01-02"), body)
	}
	raw.Items = append(raw.Items, RawItem{
		ID:       domain + "/whois",
		Kind:     model.EvidenceWhoisField,
		Title:    "registration " + domain,
		Body:     body,
		Weight:   1.0,
		Metadata: meta,
	})
	return true
}

// hasWildcard probes a random label under the domain; a successful resolve
// means a wildcard A record answers for everything.
func (d *DNSRecon) hasWildcard(ctx context.Context, domain string) bool {
	probe := fmt.Sprintf("wc-probe-%08x.%s", rand.Uint32(), domain)
	ips, err := d.resolver.LookupIP(ctx, probe)
	return err == nil && len(ips) > 0
}

func hasSPF(txts []string) bool {
	for _, t := range txts {
		if strings.HasPrefix(strings.TrimSpace(t), "v=spf1") {
			return true
		}
	}
	return false
}

// targetDomain extracts the bare domain from a query target, handling URL
// and email targets.
func targetDomain(query model.Query) (string, error) {
	target := strings.TrimSpace(query.Target)
	switch query.Kind {
	case model.KindURL:
		u, err := url.Parse(target)
		if err != nil || u.Hostname() == "" {
			// Bare host without scheme.
			if host, _, found := strings.Cut(target, "/"); found || target != "" {
				return strings.TrimPrefix(host, "www."), nil
			}
			return "", eris.Errorf("dnsrecon: cannot extract host from %q", query.Target)
		}
		return u.Hostname(), nil
	case model.KindEmail:
		_, domain, found := strings.Cut(target, "@")
		if !found || domain == "" {
			return "", eris.Errorf("dnsrecon: cannot extract domain from %q", query.Target)
		}
		return domain, nil
	default:
		return target, nil
	}
}
