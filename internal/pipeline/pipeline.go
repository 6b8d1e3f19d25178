// Package pipeline runs one manifest generation: ingest, build records,
// classify, derive documents, export and pack.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/classify"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/documents"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/export"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/manifest"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/orders"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

// ErrNothingGenerated is returned when a run produces no artifact.
var ErrNothingGenerated = errors.New("nothing generated")

// Request is the input of one run.
type Request struct {
	Group        policy.GroupPolicy
	ColdPickup   bool
	Inputs       []orders.Source
	TemplatePath string
	// Now supplies the run date. Defaults to time.Now.
	Now func() time.Time
}

// Counts summarizes bucket sizes.
type Counts struct {
	Rows    int
	Orders  int
	Dropped int
	CM      int
	MC      int
	CX      int
	DK      int
	Other   int
	Polar   int
}

// Result is the outcome of a run.
type Result struct {
	RunID       string
	Group       string
	ArchiveName string
	Archive     []byte
	Files       []export.FileInfo
	Omissions   []export.Omission
	Warnings    []manifest.Warning
	Counts      Counts
	Duration    time.Duration
}

// Run executes a request synchronously. Context cancellation is honored
// between stages. When no artifact is produced the partial Result is returned
// together with an error wrapping ErrNothingGenerated.
func Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	now := time.Now
	if req.Now != nil {
		now = req.Now
	}
	today := now()

	res := &Result{
		RunID:       uuid.NewString(),
		Group:       req.Group.Key,
		ArchiveName: req.Group.ArchiveName + ".zip",
	}
	audit := logging.AuditRun(res.RunID)
	audit.RunStart(req.Group.Key, len(req.Inputs), req.ColdPickup)

	err := run(ctx, req, today, res, audit)
	res.Duration = time.Since(start)
	audit.RunComplete(req.Group.Key, len(res.Files), res.Duration.Milliseconds(), err)
	if err != nil {
		logging.Get(logging.CategoryExport).Error("run %s failed: %v", res.RunID, err)
		return res, err
	}
	logging.Export("run %s: %s with %d files", res.RunID, res.ArchiveName, len(res.Files))
	return res, nil
}

func run(ctx context.Context, req Request, today time.Time, res *Result, audit *logging.AuditLogger) error {
	if err := req.Group.Validate(); err != nil {
		return err
	}
	table, err := orders.ReadCSV(req.Inputs...)
	if err != nil {
		return err
	}
	res.Counts.Rows = len(table.Rows)

	groups, orphans := orders.GroupByOrder(table.Rows)
	res.Counts.Orders = len(groups)
	res.Counts.Dropped = len(orphans)
	if len(orphans) > 0 {
		res.Warnings = append(res.Warnings, manifest.Warning{
			Field:   orders.ColName,
			Message: fmt.Sprintf("dropped %d row(s) without an order id", len(orphans)),
		})
	}
	if len(groups) == 0 {
		return fmt.Errorf("%w: no orders in input", ErrNothingGenerated)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	records, warnings := manifest.Build(groups, req.Group)
	res.Warnings = append(res.Warnings, warnings...)
	for _, w := range res.Warnings {
		audit.DataWarning(w.OrderID, w.Field, w.Message)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	buckets := classify.Classify(records, req.Group, classify.Options{ColdPickup: req.ColdPickup, Now: today})
	res.Counts.CM = len(buckets.CM)
	res.Counts.MC = len(buckets.MC)
	res.Counts.CX = len(buckets.CX)
	res.Counts.DK = len(buckets.DK)
	res.Counts.Other = len(buckets.Other)
	if err := ctx.Err(); err != nil {
		return err
	}

	pack := export.NewPackager(today)
	if err := writeAll(ctx, req, today, &buckets, pack, res, audit); err != nil {
		return err
	}
	res.Files = pack.Files()
	if pack.Len() == 0 {
		return fmt.Errorf("%w: every bucket is empty", ErrNothingGenerated)
	}
	archive, err := pack.Close()
	if err != nil {
		return err
	}
	res.Archive = archive
	return nil
}

// writeAll builds one artifact at a time and packs it before the next.
func writeAll(ctx context.Context, req Request, today time.Time, b *classify.Buckets, pack *export.Packager, res *Result, audit *logging.AuditLogger) error {
	p := req.Group
	add := func(a export.Artifact, err error) error {
		if err != nil {
			return err
		}
		if err := pack.Add(a); err != nil {
			return err
		}
		audit.ArtifactWritten(a.Name, len(a.Data), a.Rows)
		return nil
	}

	cols := manifest.Columns(p)
	mcCols := cols
	if p.Workflows.MCCompanyOverride {
		mcCols = manifest.Without(cols, manifest.ColCompany)
	}
	sheets := []struct {
		carrier policy.Carrier
		cols    []string
	}{
		{policy.CarrierCM, cols},
		{policy.CarrierMC, mcCols},
		{policy.CarrierCX, cols},
		{policy.CarrierOther, cols},
	}
	for _, s := range sheets {
		records := b.Get(s.carrier)
		name := p.FileName(s.carrier)
		if len(records) == 0 || name == "" {
			continue
		}
		if err := add(export.ManifestXLSX(name+".xlsx", s.cols, records)); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if p.Workflows.CXReady && len(b.CX) > 0 {
		name := p.Files.CXReady + ".xlsx"
		a, err := export.CXReadyXLSX(name, req.TemplatePath, documents.CXReady(b.CX))
		switch {
		case errors.Is(err, export.ErrTemplateMissing):
			res.Omissions = append(res.Omissions, export.Omission{Name: name, Reason: err.Error()})
			audit.ArtifactOmitted(name, err.Error())
			logging.ExportWarn("omitting %s: %v", name, err)
		case err != nil:
			return err
		default:
			if err := add(a, nil); err != nil {
				return err
			}
		}
	}

	if p.Workflows.PolarParcel {
		doc := documents.NewPolarParcel(b.All, p, today)
		res.Counts.Polar = doc.Len()
		if doc.Len() > 0 {
			if err := add(export.PolarParcelXLSX(p.Files.PolarParcel+".xlsx", doc)); err != nil {
				return err
			}
		}
	}

	if p.Workflows.DKDistribution && len(b.DK) > 0 {
		if err := add(export.CSVWithBOM(p.Files.DK+".csv", documents.DKDistribution(b.DK, today))); err != nil {
			return err
		}
	}
	return nil
}
