// Package policy defines the per-customer-group rules that drive aggregation,
// record building and classification. A GroupPolicy is a value object: it is
// passed explicitly into every stage and never looked up from global state.
package policy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGroup is returned when a group key does not match any policy.
var ErrUnknownGroup = errors.New("policy: unknown customer group")

// BundlePolicy controls how bundle line items count toward the shipping
// volume.
type BundlePolicy string

const (
	// BundleSkip ignores any line whose name contains a bundle name.
	BundleSkip BundlePolicy = "skip"
	// BundleSubtract deducts the bundle line's quantity from the total.
	BundleSubtract BundlePolicy = "subtract"
	// BundleExpand counts an exactly-named bundle as size × quantity meals.
	BundleExpand BundlePolicy = "expand"
)

// TagMatch selects how carrier tags are recognized in an order's tag text.
type TagMatch string

const (
	// TagMatchToken requires the carrier code as a whole delimiter-separated token.
	TagMatchToken TagMatch = "token"
	// TagMatchSubstring accepts the carrier code anywhere in the tag text.
	TagMatchSubstring TagMatch = "substring"
)

// Carrier identifies a manifest bucket.
type Carrier string

const (
	CarrierCM    Carrier = "CM"
	CarrierMC    Carrier = "MC"
	CarrierCX    Carrier = "CX"
	CarrierDK    Carrier = "DK"
	CarrierOther Carrier = "Other"
)

// TaggedCarriers are the carriers selected by tag, in default precedence order.
var TaggedCarriers = []Carrier{CarrierCM, CarrierMC, CarrierCX, CarrierDK}

// Classification configures the tag partitioner.
type Classification struct {
	Partition  bool      `yaml:"partition"`
	TagMatch   TagMatch  `yaml:"tag_match"`
	Exclusive  bool      `yaml:"exclusive"`
	Precedence []Carrier `yaml:"precedence,omitempty"`
}

// Workflows toggles the carrier-specific post-processing and documents.
type Workflows struct {
	MCCompanyOverride bool `yaml:"mc_company_override"`
	ColdExpress       bool `yaml:"cold_express"`
	CXReady           bool `yaml:"cx_ready"`
	PolarParcel       bool `yaml:"polar_parcel"`
	DKDistribution    bool `yaml:"dk_distribution"`
}

// FileNames are the artifact base names (without extension).
type FileNames struct {
	CM          string `yaml:"cm"`
	MC          string `yaml:"mc"`
	CX          string `yaml:"cx"`
	Other       string `yaml:"other"`
	CXReady     string `yaml:"cx_ready"`
	PolarParcel string `yaml:"polar_parcel"`
	DK          string `yaml:"dk"`
}

// GroupPolicy is the complete rule set for one customer group.
type GroupPolicy struct {
	Key           string `yaml:"key"`
	Label         string `yaml:"label"`
	ArchiveName   string `yaml:"archive_name"`
	ItemsPerLabel int    `yaml:"items_per_label"`

	BundlePolicy      BundlePolicy   `yaml:"bundle_policy"`
	BundleItems       []string       `yaml:"bundle_items,omitempty"`
	BundleSizes       map[string]int `yaml:"bundle_sizes,omitempty"`
	FamilyDoubleItems []string       `yaml:"family_double_items,omitempty"`

	PhoneColumns []string          `yaml:"phone_columns"`
	StateMap     map[string]string `yaml:"state_map,omitempty"`
	CountryMap   map[string]string `yaml:"country_map,omitempty"`

	DeriveCity     bool `yaml:"derive_city"`
	IncludeCompany bool `yaml:"include_company"`

	Classification Classification `yaml:"classification"`
	Workflows      Workflows      `yaml:"workflows"`
	Files          FileNames      `yaml:"files"`
}

// Validate checks the policy for values the engine cannot interpret.
func (p GroupPolicy) Validate() error {
	if strings.TrimSpace(p.Key) == "" {
		return fmt.Errorf("group policy: key is required")
	}
	if p.ItemsPerLabel <= 0 {
		return fmt.Errorf("group %s: items_per_label must be positive, got %d", p.Key, p.ItemsPerLabel)
	}
	switch p.BundlePolicy {
	case BundleSkip, BundleSubtract, BundleExpand:
	default:
		return fmt.Errorf("group %s: unknown bundle_policy %q", p.Key, p.BundlePolicy)
	}
	switch p.Classification.TagMatch {
	case TagMatchToken, TagMatchSubstring:
	default:
		return fmt.Errorf("group %s: unknown tag_match %q", p.Key, p.Classification.TagMatch)
	}
	for _, c := range p.Classification.Precedence {
		if !isTagged(c) {
			return fmt.Errorf("group %s: precedence names unknown carrier %q", p.Key, c)
		}
	}
	for name, size := range p.BundleSizes {
		if size < 0 {
			return fmt.Errorf("group %s: bundle %q has negative size", p.Key, name)
		}
	}
	return nil
}

// Precedence returns the carrier order used for exclusive classification.
// Carriers missing from the configured list follow in default order.
func (p GroupPolicy) Precedence() []Carrier {
	out := make([]Carrier, 0, len(TaggedCarriers))
	seen := make(map[Carrier]bool)
	for _, c := range p.Classification.Precedence {
		if isTagged(c) && !seen[c] {
			out = append(out, c)
			seen[c] = true
		}
	}
	for _, c := range TaggedCarriers {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out
}

// MatchesBundle reports whether itemName contains any configured bundle name.
func (p GroupPolicy) MatchesBundle(itemName string) bool {
	for _, b := range p.BundleItems {
		if b != "" && strings.Contains(itemName, b) {
			return true
		}
	}
	return false
}

// BundleSize returns the meal count of an exactly-named bundle.
func (p GroupPolicy) BundleSize(itemName string) (int, bool) {
	n, ok := p.BundleSizes[itemName]
	return n, ok
}

// IsFamilyDouble reports whether itemName exactly equals a family-size item.
func (p GroupPolicy) IsFamilyDouble(itemName string) bool {
	for _, f := range p.FamilyDoubleItems {
		if itemName == f {
			return true
		}
	}
	return false
}

// FileName returns the artifact base name for a carrier bucket.
func (p GroupPolicy) FileName(c Carrier) string {
	switch c {
	case CarrierCM:
		return p.Files.CM
	case CarrierMC:
		return p.Files.MC
	case CarrierCX:
		return p.Files.CX
	case CarrierOther:
		return p.Files.Other
	default:
		return ""
	}
}

// Clone returns a deep copy so that callers cannot mutate a shared policy.
func (p GroupPolicy) Clone() GroupPolicy {
	c := p
	c.BundleItems = append([]string(nil), p.BundleItems...)
	c.FamilyDoubleItems = append([]string(nil), p.FamilyDoubleItems...)
	c.PhoneColumns = append([]string(nil), p.PhoneColumns...)
	c.Classification.Precedence = append([]Carrier(nil), p.Classification.Precedence...)
	c.BundleSizes = cloneMap(p.BundleSizes)
	c.StateMap = cloneMap(p.StateMap)
	c.CountryMap = cloneMap(p.CountryMap)
	return c
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func isTagged(c Carrier) bool {
	for _, t := range TaggedCarriers {
		if c == t {
			return true
		}
	}
	return false
}
