package parser

import (
	"context"
	"os"

	"github.com/dirt-web/dirt/internal/errors"
	"github.com/dirt-web/dirt/internal/types"
	"golang.org/x/sync/errgroup"
)

// IndexName is the module name that maps to the site root.
const IndexName = "index"

// BuildRecord reads one hybrid file and produces its module record. The only
// failure is reading the file.
func BuildRecord(desc types.ModuleDescriptor) (*types.ModuleRecord, error) {
	raw, err := os.ReadFile(desc.Path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadModule, "failed to read module "+desc.Name, desc.Path).
			WithStep("parse")
	}

	return ParseRecord(desc, string(raw)), nil
}

// ParseRecord builds a record from already loaded file contents.
func ParseRecord(desc types.ModuleDescriptor, raw string) *types.ModuleRecord {
	content := BindRoute(Split(raw), desc.Route)

	record := &types.ModuleRecord{
		Path:     desc.Path,
		Name:     desc.Name,
		Code:     content.Code,
		Markup:   content.Markup,
		IsIndex:  desc.Name == IndexName,
		Services: make([]types.ServiceEndpoint, 0),
		Route:    desc.Route,
	}

	if content.Code != nil {
		record.Services = ExtractServices(*content.Code)
		record.HasTemplateHook = HasTemplateHook(*content.Code)
	}

	return record
}

// BuildRecords parses descs with at most workers files in flight. Records come
// back in the order of descs with unreadable files left out; their errors are
// returned separately, also in descriptor order. Only ctx cancellation stops
// the batch early, in which case the context error is returned as the last
// element of the error slice.
func BuildRecords(ctx context.Context, descs []types.ModuleDescriptor, workers int) ([]*types.ModuleRecord, []error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]*types.ModuleRecord, len(descs))
	failures := make([]error, len(descs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, desc := range descs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record, err := BuildRecord(desc)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = record
			return nil
		})
	}

	waitErr := g.Wait()

	records := make([]*types.ModuleRecord, 0, len(descs))
	errs := make([]error, 0)
	for i := range descs {
		if results[i] != nil {
			records = append(records, results[i])
		}
		if failures[i] != nil {
			errs = append(errs, failures[i])
		}
	}
	if waitErr == nil {
		waitErr = ctx.Err()
	}
	if waitErr != nil {
		errs = append(errs, waitErr)
	}

	return records, errs
}
