package provider

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsward/osint-core/internal/model"
	"github.com/newsward/osint-core/pkg/rdap"
)

// fakeResolver serves canned records; wildcard controls whether random-label
// probes resolve.
type fakeResolver struct {
	ips      []net.IP
	ipErr    error
	mx       []*net.MX
	mxErr    error
	ns       []*net.NS
	txt      []string
	wildcard bool
}

func (f *fakeResolver) LookupIP(_ context.Context, host string) ([]net.IP, error) {
	if strings.HasPrefix(host, "wc-probe-") {
		if f.wildcard {
			return []net.IP{net.ParseIP("203.0.113.9")}, nil
		}
		return nil, errors.New("no such host")
	}
	return f.ips, f.ipErr
}

func (f *fakeResolver) LookupMX(context.Context, string) ([]*net.MX, error) { return f.mx, f.mxErr }
func (f *fakeResolver) LookupNS(context.Context, string) ([]*net.NS, error) { return f.ns, nil }
func (f *fakeResolver) LookupTXT(context.Context, string) ([]string, error) { return f.txt, nil }

type fakeRDAP struct {
	resp *rdap.DomainResponse
	err  error
}

func (f *fakeRDAP) Domain(context.Context, string) (*rdap.DomainResponse, error) {
	return f.resp, f.err
}

func cleanResolver() *fakeResolver {
	return &fakeResolver{
		ips: []net.IP{net.ParseIP("198.51.100.1")},
		mx:  []*net.MX{{Host: "mail.acme.example."}},
		ns:  []*net.NS{{Host: "ns1.acme.example."}},
		txt: []string{"v=spf1 include:_spf.example.com ~all"},
	}
}

func registeredRDAP(at time.Time) *fakeRDAP {
	return &fakeRDAP{resp: &rdap.DomainResponse{
		LDHName: "acme.example",
		Handle:  "ACME-1",
		Events:  []rdap.Event{{Action: "registration", Date: at}},
		Entities: []rdap.Entity{
			{Roles: []string{"registrar"}, Handle: "Example Registrar"},
		},
	}}
}

func domainQuery(target string, kind model.QueryKind) model.Query {
	return model.Query{Target: target, Kind: kind}
}

func TestDNSRecon_FullCollection(t *testing.T) {
	registered := time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC)
	d := NewDNSRecon(cleanResolver(), registeredRDAP(registered), 20*time.Second, true)

	raw, err := d.Fetch(context.Background(), domainQuery("acme.example", model.KindDomain))
	require.NoError(t, err)
	assert.False(t, raw.Partial)
	require.Len(t, raw.Items, 5) // A, MX, NS, TXT, whois

	byType := make(map[string]RawItem)
	for _, item := range raw.Items {
		if item.Kind == model.EvidenceDNSRecord {
			byType[item.Metadata["record_type"].(string)] = item
		} else {
			byType["whois"] = item
		}
	}

	a := byType["A"]
	assert.Equal(t, 1, a.Metadata["ip_count"])
	assert.Equal(t, false, a.Metadata["wildcard"])

	txt := byType["TXT"]
	assert.Equal(t, true, txt.Metadata["has_spf"])

	whois := byType["whois"]
	assert.Equal(t, model.EvidenceWhoisField, whois.Kind)
	assert.Equal(t, "2020-02-03T00:00:00Z", whois.Metadata["registered_at"])
	assert.Equal(t, "Example Registrar", whois.Metadata["registrar"])
	assert.Equal(t, false, whois.Metadata["privacy_protected"])
}

func TestDNSRecon_WildcardDetected(t *testing.T) {
	r := cleanResolver()
	r.wildcard = true
	d := NewDNSRecon(r, registeredRDAP(time.Now()), time.Second, true)

	raw, err := d.Fetch(context.Background(), domainQuery("flux.example", model.KindDomain))
	require.NoError(t, err)
	for _, item := range raw.Items {
		if item.Metadata["record_type"] == "A" {
			assert.Equal(t, true, item.Metadata["wildcard"])
			return
		}
	}
	t.Fatal("no A record item")
}

func TestDNSRecon_RDAPFailureIsPartial(t *testing.T) {
	d := NewDNSRecon(cleanResolver(), &fakeRDAP{err: errors.New("rdap 404")}, time.Second, true)

	raw, err := d.Fetch(context.Background(), domainQuery("acme.example", model.KindDomain))
	require.NoError(t, err)
	assert.True(t, raw.Partial)
	require.NotEmpty(t, raw.Warnings)
	assert.Contains(t, raw.Warnings[0], "rdap lookup failed")

	for _, item := range raw.Items {
		assert.NotEqual(t, model.EvidenceWhoisField, item.Kind)
	}
}

func TestDNSRecon_DNSFailureIsPartial(t *testing.T) {
	r := &fakeResolver{ipErr: errors.New("servfail")}
	d := NewDNSRecon(r, registeredRDAP(time.Now()), time.Second, true)

	raw, err := d.Fetch(context.Background(), domainQuery("acme.example", model.KindDomain))
	require.NoError(t, err)
	assert.True(t, raw.Partial)
	require.Len(t, raw.Items, 1)
	assert.Equal(t, model.EvidenceWhoisField, raw.Items[0].Kind)
}

func TestDNSRecon_BothFailuresError(t *testing.T) {
	r := &fakeResolver{ipErr: errors.New("servfail")}
	d := NewDNSRecon(r, &fakeRDAP{err: errors.New("rdap down")}, time.Second, true)

	_, err := d.Fetch(context.Background(), domainQuery("acme.example", model.KindDomain))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data")
}

func TestTargetDomain(t *testing.T) {
	cases := []struct {
		target string
		kind   model.QueryKind
		want   string
	}{
		{"acme.example", model.KindDomain, "acme.example"},
		{"https://www.acme.example/login?x=1", model.KindURL, "www.acme.example"},
		{"alice@acme.example", model.KindEmail, "acme.example"},
	}
	for _, tc := range cases {
		got, err := targetDomain(model.Query{Target: tc.target, Kind: tc.kind})
		require.NoError(t, err, tc.target)
		assert.Equal(t, tc.want, got, tc.target)
	}

	_, err := targetDomain(model.Query{Target: "not-an-email", Kind: model.KindEmail})
	require.Error(t, err)
}
