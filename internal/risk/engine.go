// Package risk computes the composite risk score for domain/DNS lookups from
// normalized evidence.
package risk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newsward/osint-core/internal/config"
	"github.com/newsward/osint-core/internal/model"
)

// Engine scores a target from its evidence. Signals are independent: each
// contributes its configured points and the sum is clamped to [0,100]. A
// signal with no supporting evidence contributes zero; absence of data is
// never treated as a dirty finding.
type Engine struct {
	cfg config.RiskConfig
	now func() time.Time

	mu    sync.Mutex
	cache map[string]*model.RiskAssessment
}

// NewEngine creates a scoring engine with the given weight configuration.
func NewEngine(cfg config.RiskConfig) *Engine {
	return &Engine{
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		cache: make(map[string]*model.RiskAssessment),
	}
}

// WithNow sets a fixed clock for testing.
func (e *Engine) WithNow(t time.Time) *Engine {
	e.now = func() time.Time { return t }
	return e
}

// Score evaluates all risk signals for a target in fixed order, so factors
// come out reproducible and explainable. Results are cached by
// (target, evidence fingerprint); identical evidence always yields the
// identical assessment.
func (e *Engine) Score(target string, evidence []model.EvidenceItem) *model.RiskAssessment {
	key := target + "\x00" + fingerprint(evidence)

	e.mu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return cached
	}
	e.mu.Unlock()

	assessment := e.score(target, evidence)

	e.mu.Lock()
	if e.cfg.CacheSize > 0 && len(e.cache) >= e.cfg.CacheSize {
		// Cheap full reset instead of per-entry eviction; assessments are
		// recomputed on demand.
		e.cache = make(map[string]*model.RiskAssessment)
	}
	e.cache[key] = assessment
	e.mu.Unlock()

	return assessment
}

func (e *Engine) score(target string, evidence []model.EvidenceItem) *model.RiskAssessment {
	score := 0
	var factors []string
	hardTrigger := false

	// Signal 1: domain age.
	if registered, ok := registrationDate(evidence); ok {
		ageDays := int(e.now().Sub(registered).Hours() / 24)
		switch {
		case ageDays < e.cfg.YoungDomainDays:
			score += e.cfg.YoungDomainPoints
			factors = append(factors, fmt.Sprintf("Domain registered %d days ago", ageDays))
		case ageDays < e.cfg.RecentDomainDays:
			score += e.cfg.RecentDomainPoints
			factors = append(factors, fmt.Sprintf("Domain registered %d days ago", ageDays))
		}
	}

	// Signal 2: privacy-protected WHOIS registrant.
	if whoisPrivacy(evidence) {
		score += e.cfg.PrivacyWhoisPoints
		factors = append(factors, "WHOIS registrant is privacy-protected")
	}

	// Signal 3: domain presents itself as a mail sender (publishes SPF) but
	// has no MX records.
	if presentsMissingMX(evidence) {
		score += e.cfg.MissingMXPoints
		factors = append(factors, "Domain publishes SPF but has no MX records")
	}

	// Signal 4: wildcard DNS combined with many distinct resolved IPs.
	if wild, ipCount := wildcardFlux(evidence); wild && ipCount > e.cfg.FastFluxMinIPs {
		score += e.cfg.FastFluxPoints
		factors = append(factors, fmt.Sprintf("Wildcard DNS with %d resolved IPs (fast-flux heuristic)", ipCount))
	}

	// Signal 5: open ports outside the allow-list, unless the target
	// declares itself as infrastructure.
	if ports := unexpectedPorts(evidence, e.cfg.AllowedPorts); len(ports) > 0 {
		points := len(ports) * e.cfg.OpenPortPoints
		if points > e.cfg.OpenPortCap {
			points = e.cfg.OpenPortCap
		}
		score += points
		for _, p := range ports {
			factors = append(factors, fmt.Sprintf("Unexpected open port %d", p))
		}
	}

	// Signal 6: threat-intel tag match. Hard trigger: suspicious regardless
	// of total score.
	for _, tag := range threatTags(evidence) {
		score += e.cfg.ThreatTagPoints
		hardTrigger = true
		factors = append(factors, fmt.Sprintf("Threat intelligence match: %s", tag))
	}

	if score > 100 {
		score = 100
	}

	assessment := &model.RiskAssessment{
		Target:       target,
		Score:        score,
		Level:        model.LevelForScore(score),
		Factors:      factors,
		IsSuspicious: score >= 70 || hardTrigger,
	}

	zap.L().Debug("risk: assessment computed",
		zap.String("target", target),
		zap.Int("score", score),
		zap.String("level", string(assessment.Level)),
		zap.Bool("suspicious", assessment.IsSuspicious),
	)
	return assessment
}

// registrationDate finds the registration timestamp among WHOIS evidence.
func registrationDate(evidence []model.EvidenceItem) (time.Time, bool) {
	for _, item := range evidence {
		if item.Kind != model.EvidenceWhoisField {
			continue
		}
		if raw := item.MetaString("registered_at"); raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func whoisPrivacy(evidence []model.EvidenceItem) bool {
	for _, item := range evidence {
		if item.Kind == model.EvidenceWhoisField && item.MetaBool("privacy_protected") {
			return true
		}
	}
	return false
}

// presentsMissingMX is true when DNS evidence shows an SPF record (the domain
// declares it sends mail) but no MX record set.
func presentsMissingMX(evidence []model.EvidenceItem) bool {
	hasSPF := false
	hasMX := false
	sawDNS := false
	for _, item := range evidence {
		if item.Kind != model.EvidenceDNSRecord {
			continue
		}
		sawDNS = true
		switch item.MetaString("record_type") {
		case "MX":
			hasMX = true
		case "TXT":
			if item.MetaBool("has_spf") {
				hasSPF = true
			}
		}
	}
	return sawDNS && hasSPF && !hasMX
}

func wildcardFlux(evidence []model.EvidenceItem) (bool, int) {
	for _, item := range evidence {
		if item.Kind != model.EvidenceDNSRecord || item.MetaString("record_type") != "A" {
			continue
		}
		if item.MetaBool("wildcard") {
			count, _ := item.MetaInt("ip_count")
			return true, count
		}
	}
	return false, 0
}

// unexpectedPorts returns open ports outside the allow-list, ascending.
// Targets whose port-scan evidence declares them as infrastructure are
// exempt from this signal.
func unexpectedPorts(evidence []model.EvidenceItem, allowed []int) []int {
	allowedSet := make(map[int]bool, len(allowed))
	for _, p := range allowed {
		allowedSet[p] = true
	}

	seen := make(map[int]bool)
	var ports []int
	for _, item := range evidence {
		if item.Kind != model.EvidencePortScan {
			continue
		}
		if item.MetaBool("declared_infrastructure") {
			return nil
		}
		if port, ok := item.MetaInt("port"); ok && !allowedSet[port] && !seen[port] {
			seen[port] = true
			ports = append(ports, port)
		}
	}
	sort.Ints(ports)
	return ports
}

func threatTags(evidence []model.EvidenceItem) []string {
	var tags []string
	for _, item := range evidence {
		if item.Kind != model.EvidenceThreatIntel {
			continue
		}
		tag := item.MetaString("tag")
		if tag == "" {
			tag = item.Title
		}
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// fingerprint hashes the sorted evidence IDs so the cache key reflects the
// exact evidence set.
func fingerprint(evidence []model.EvidenceItem) string {
	ids := make([]string, 0, len(evidence))
	for _, item := range evidence {
		ids = append(ids, item.ID)
	}
	sort.Strings(ids)
	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
