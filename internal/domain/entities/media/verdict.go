package media

import "encoding/json"

// Domain tells the classifier which side of the verdict a checker feeds
type Domain int

const (
	// DomainPrimary checkers decide candidacy; a hit excludes the item from scans
	DomainPrimary Domain = iota
	// DomainElsewhere checkers decide safety among candidates
	DomainElsewhere
)

// String returns the domain name used in logs and metrics
func (d Domain) String() string {
	if d == DomainPrimary {
		return "primary"
	}
	return "elsewhere"
}

// CheckerResult is one checker's answer for one item
type CheckerResult struct {
	Used    bool     `json:"used"`
	Details []string `json:"details,omitempty"`
}

// Unused is the negative result
func Unused() CheckerResult { return CheckerResult{} }

// UsedBy returns a positive result with optional human-readable details
func UsedBy(details ...string) CheckerResult {
	return CheckerResult{Used: true, Details: details}
}

// Verdict is the combined classification of one item at one point in time.
// SafeToDelete is always derived; there is no way to set it directly.
type Verdict struct {
	usedInPrimaryDomain bool
	usedElsewhere       bool
	explanations        []string
}

// NewVerdict builds a verdict, deduplicating explanations in first-seen order
func NewVerdict(usedInPrimaryDomain, usedElsewhere bool, explanations []string) Verdict {
	seen := make(map[string]struct{}, len(explanations))
	deduped := make([]string, 0, len(explanations))
	for _, e := range explanations {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		deduped = append(deduped, e)
	}
	return Verdict{
		usedInPrimaryDomain: usedInPrimaryDomain,
		usedElsewhere:       usedElsewhere,
		explanations:        deduped,
	}
}

func (v Verdict) UsedInPrimaryDomain() bool { return v.usedInPrimaryDomain }
func (v Verdict) UsedElsewhere() bool       { return v.usedElsewhere }

// SafeToDelete is true only when no checker found a reference
func (v Verdict) SafeToDelete() bool {
	return !v.usedInPrimaryDomain && !v.usedElsewhere
}

// Explanations returns a copy of the usage explanations
func (v Verdict) Explanations() []string {
	out := make([]string, len(v.explanations))
	copy(out, v.explanations)
	return out
}

// SafetyStatus is "safe" or "warning"
func (v Verdict) SafetyStatus() string {
	if v.SafeToDelete() {
		return "safe"
	}
	return "warning"
}

type verdictJSON struct {
	UsedInPrimaryDomain bool     `json:"usedInPrimaryDomain"`
	UsedElsewhere       bool     `json:"usedElsewhere"`
	SafeToDelete        bool     `json:"isTrulyOrphaned"`
	UsageExplanations   []string `json:"usageDetails"`
}

// MarshalJSON implements json.Marshaler
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(verdictJSON{
		UsedInPrimaryDomain: v.usedInPrimaryDomain,
		UsedElsewhere:       v.usedElsewhere,
		SafeToDelete:        v.SafeToDelete(),
		UsageExplanations:   v.Explanations(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The stored safe flag is ignored
// and re-derived.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var w verdictJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = NewVerdict(w.UsedInPrimaryDomain, w.UsedElsewhere, w.UsageExplanations)
	return nil
}
