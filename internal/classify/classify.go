// Package classify routes manifest records into carrier buckets by tag and
// applies the carrier-specific overrides.
package classify

import (
	"strings"
	"time"
	"unicode"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/manifest"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

// Buckets is the partition of one run's records. All keeps every record in
// input order for documents drawn from the full manifest.
type Buckets struct {
	CM    []manifest.Record
	MC    []manifest.Record
	CX    []manifest.Record
	DK    []manifest.Record
	Other []manifest.Record
	All   []manifest.Record
}

// Get returns the bucket for c.
func (b *Buckets) Get(c policy.Carrier) []manifest.Record {
	switch c {
	case policy.CarrierCM:
		return b.CM
	case policy.CarrierMC:
		return b.MC
	case policy.CarrierCX:
		return b.CX
	case policy.CarrierDK:
		return b.DK
	default:
		return b.Other
	}
}

func (b *Buckets) add(c policy.Carrier, r manifest.Record) {
	switch c {
	case policy.CarrierCM:
		b.CM = append(b.CM, r)
	case policy.CarrierMC:
		b.MC = append(b.MC, r)
	case policy.CarrierCX:
		b.CX = append(b.CX, r)
	case policy.CarrierDK:
		b.DK = append(b.DK, r)
	default:
		b.Other = append(b.Other, r)
	}
}

// Options are the per-run switches that are not part of a group policy.
type Options struct {
	ColdPickup bool
	Now        time.Time
}

// Classify partitions records, overrides the MC recipient and appends the
// Cold Express pickup row when requested.
func Classify(records []manifest.Record, p policy.GroupPolicy, opts Options) Buckets {
	b := Partition(records, p)
	if p.Workflows.MCCompanyOverride {
		b.MC = OverrideRecipient(b.MC)
	}
	if opts.ColdPickup {
		if p.Workflows.ColdExpress {
			b.MC = append(b.MC, ColdExpressRecord(b.CX, p, opts.Now))
			logging.Classify("appended Cold Express pickup row (%d CX orders)", len(b.CX))
		} else {
			logging.Get(logging.CategoryClassify).Warn("cold pickup requested but %s has no Cold Express workflow", p.Key)
		}
	}
	return b
}

// Partition assigns every record to buckets. With exclusive classification
// each order lands in exactly one bucket chosen by precedence; otherwise an
// order joins every bucket whose tag it carries. Other is the complement of
// the tagged buckets either way.
func Partition(records []manifest.Record, p policy.GroupPolicy) Buckets {
	b := Buckets{All: records}
	if !p.Classification.Partition {
		b.Other = append(b.Other, records...)
		logging.Classify("%s: partitioning off, %d records in one manifest", p.Key, len(records))
		return b
	}

	carriers := activeCarriers(p)
	for _, r := range records {
		matched := false
		for _, c := range carriers {
			if !Matches(r.Tags, c, p.Classification.TagMatch) {
				continue
			}
			b.add(c, r)
			matched = true
			if p.Classification.Exclusive {
				break
			}
		}
		if !matched {
			b.Other = append(b.Other, r)
		}
		logging.ClassifyDebug("%s tags=%q matched=%v", r.OrderID, r.Tags, matched)
	}
	logging.Classify("%s: CM=%d MC=%d CX=%d DK=%d Other=%d",
		p.Key, len(b.CM), len(b.MC), len(b.CX), len(b.DK), len(b.Other))
	return b
}

// activeCarriers is the precedence list, without DK unless the group runs
// the DK workflow. DK-tagged orders of other groups stay in Other.
func activeCarriers(p policy.GroupPolicy) []policy.Carrier {
	var out []policy.Carrier
	for _, c := range p.Precedence() {
		if c == policy.CarrierDK && !p.Workflows.DKDistribution {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Matches reports whether tags select carrier c.
func Matches(tags string, c policy.Carrier, mode policy.TagMatch) bool {
	code := string(c)
	if mode == policy.TagMatchSubstring {
		return strings.Contains(tags, code)
	}
	for _, tok := range Tokens(tags) {
		if tok == code {
			return true
		}
	}
	return false
}

// Tokens splits tag text on anything that is not a letter or digit.
func Tokens(tags string) []string {
	return strings.FieldsFunc(tags, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// OverrideRecipient returns copies of records whose Deliver to is the
// order's shipping company, or its shipping name when no company is set.
func OverrideRecipient(records []manifest.Record) []manifest.Record {
	out := make([]manifest.Record, len(records))
	for i, r := range records {
		r.DeliverTo = r.Location
		out[i] = r
	}
	return out
}

// DeliveryType is Commercial for CEW-tagged orders and Residential otherwise.
func DeliveryType(tags string) string {
	if strings.Contains(tags, "CEW") {
		return "Commercial"
	}
	return "Residential"
}
