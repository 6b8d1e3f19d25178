package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/normalize"
)

// Phone source columns.
const (
	ColumnBillingPhone  = "Billing Phone"
	ColumnPhone         = "Phone"
	ColumnShippingPhone = "Shipping Phone"
)

// DefaultFiles are the artifact base names shared by the partitioning groups.
var DefaultFiles = FileNames{
	CM:          "CM_Manifest",
	MC:          "MC_Manifest",
	CX:          "CX_Manifest",
	Other:       "Other_Manifest",
	CXReady:     "CX_Ready_Manifest",
	PolarParcel: "Polar_Parcel_Manifest",
	DK:          "DK_Manifest",
}

func defaultClassification() Classification {
	return Classification{
		Partition:  true,
		TagMatch:   TagMatchToken,
		Exclusive:  true,
		Precedence: append([]Carrier(nil), TaggedCarriers...),
	}
}

// CleanEats is the Clean Eats Australia policy: bundles skipped, family
// bakes counted twice, all carrier workflows on.
func CleanEats() GroupPolicy {
	return GroupPolicy{
		Key:           "clean-eats",
		Label:         "Clean Eats Australia",
		ArchiveName:   "CleanEats_Manifests",
		ItemsPerLabel: 24,
		BundlePolicy:  BundleSkip,
		BundleItems: []string{
			"CARB LOVER'S FEAST",
			"SUPER CHARGED CALORIES",
			"FEED ME BEEF",
			"GIVE ME CHICKEN",
			"I WON'T PAS(TA) ON THIS MEAL",
			"THE MEGA PACK",
			"MAKE YOUR OWN MEGA PACK",
			"CARB HATERS FEAST",
			"UNDER CHARGED CALORIES",
			"VEGGIE LOVERS PACK",
			"Clean Eats Meal Plan",
		},
		FamilyDoubleItems: []string{
			"Family Mac and 3 Cheese Pasta Bake",
			"Baked Family Lasagna",
		},
		PhoneColumns:   []string{ColumnBillingPhone, ColumnPhone},
		StateMap:       cloneMap(normalize.DefaultStates),
		CountryMap:     cloneMap(normalize.DefaultCountries),
		DeriveCity:     true,
		Classification: defaultClassification(),
		Workflows: Workflows{
			MCCompanyOverride: true,
			ColdExpress:       true,
			CXReady:           true,
			PolarParcel:       true,
			DKDistribution:    true,
		},
		Files: DefaultFiles,
	}
}

// MadeActive is the Made Active policy: fixed-size packs expand to their
// meal count.
func MadeActive() GroupPolicy {
	return GroupPolicy{
		Key:           "made-active",
		Label:         "Made Active",
		ArchiveName:   "MadeActive_Manifests",
		ItemsPerLabel: 20,
		BundlePolicy:  BundleExpand,
		BundleSizes: map[string]int{
			"10 Pack":                  10,
			"20 Pack":                  20,
			"30 Pack":                  30,
			"10 Meal Christmas Bundle": 10,
			"14 Meal Christmas Bundle": 14,
			"High Protein Pack":        12,
			"The Bunny Bundle":         10,
		},
		PhoneColumns: []string{ColumnBillingPhone, ColumnPhone},
		StateMap: map[string]string{
			"VIC": normalize.StateVictoria,
			"NSW": normalize.StateNewSouthWales,
		},
		CountryMap:     cloneMap(normalize.DefaultCountries),
		Classification: defaultClassification(),
		Files:          DefaultFiles,
	}
}

// EliteMeals is the Elite Meals policy: a single unpartitioned manifest that
// carries the shipping company.
func EliteMeals() GroupPolicy {
	files := DefaultFiles
	files.Other = "EliteMeals_Manifest"
	return GroupPolicy{
		Key:           "elite-meals",
		Label:         "Elite Meals",
		ArchiveName:   "EliteMeals_Manifest",
		ItemsPerLabel: 20,
		BundlePolicy:  BundleSkip,
		PhoneColumns:  []string{ColumnBillingPhone, ColumnPhone},
		StateMap: map[string]string{
			"VIC": normalize.StateVictoria,
			"NSW": normalize.StateNewSouthWales,
		},
		CountryMap:     cloneMap(normalize.DefaultCountries),
		IncludeCompany: true,
		Classification: Classification{TagMatch: TagMatchToken, Exclusive: true},
		Files:          files,
	}
}

// Builtin returns fresh copies of the built-in groups in menu order.
func Builtin() []GroupPolicy {
	return []GroupPolicy{CleanEats(), MadeActive(), EliteMeals()}
}

// Registry holds the configured groups keyed by Key.
type Registry struct {
	order  []string
	groups map[string]GroupPolicy
}

// NewRegistry validates groups and rejects duplicate keys.
func NewRegistry(groups []GroupPolicy) (*Registry, error) {
	r := &Registry{groups: make(map[string]GroupPolicy, len(groups))}
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(g.Key)
		if _, dup := r.groups[key]; dup {
			return nil, fmt.Errorf("duplicate group key %q", g.Key)
		}
		r.groups[key] = g.Clone()
		r.order = append(r.order, key)
	}
	return r, nil
}

// Lookup finds a group by key or display label, case-insensitively.
func (r *Registry) Lookup(name string) (GroupPolicy, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	if g, ok := r.groups[want]; ok {
		return g.Clone(), nil
	}
	for _, key := range r.order {
		if strings.ToLower(r.groups[key].Label) == want {
			return r.groups[key].Clone(), nil
		}
	}
	return GroupPolicy{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownGroup, name, strings.Join(r.Keys(), ", "))
}

// Groups returns copies of all groups in configuration order.
func (r *Registry) Groups() []GroupPolicy {
	out := make([]GroupPolicy, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.groups[key].Clone())
	}
	return out
}

// Keys returns the sorted group keys.
func (r *Registry) Keys() []string {
	keys := append([]string(nil), r.order...)
	sort.Strings(keys)
	return keys
}
