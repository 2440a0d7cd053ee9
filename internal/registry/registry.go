// Package registry assembles the target schema an import maps onto from the
// built-in lead fields, a field file, Salesforce describe metadata, and
// Notion-hosted custom fields.
package registry

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/pkg/notion"
	"github.com/sells-group/lead-importer/pkg/salesforce"
)

// Sources selects where target fields come from. Zero-valued sources are
// skipped.
type Sources struct {
	Builtin bool
	File    string

	Salesforce    salesforce.Client
	SFObject      string
	SFUniqueField string

	Notion        notion.Client
	NotionFieldDB string
}

// Load reads every configured source and merges the fields in the order
// builtin, file, Salesforce, Notion. Remote sources are fetched
// concurrently. When two sources define the same ID the earlier one wins.
func Load(ctx context.Context, src Sources) (*model.Schema, error) {
	var (
		fileFields   []model.TargetField
		sfFields     []model.TargetField
		notionFields []model.TargetField
	)

	if src.File != "" {
		var err error
		fileFields, err = LoadFieldsFromFile(src.File)
		if err != nil {
			return nil, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if src.Salesforce != nil {
		g.Go(func() error {
			object := src.SFObject
			if object == "" {
				object = "Lead"
			}
			fields, err := salesforce.DescribeFields(gctx, src.Salesforce, object, src.SFUniqueField)
			if err != nil {
				return eris.Wrap(err, "registry: load salesforce fields")
			}
			sfFields = fields
			return nil
		})
	}
	if src.Notion != nil && src.NotionFieldDB != "" {
		g.Go(func() error {
			fields, err := LoadCustomFields(gctx, src.Notion, src.NotionFieldDB)
			if err != nil {
				return err
			}
			notionFields = fields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.TargetField
	if src.Builtin {
		all = append(all, DefaultLeadFields()...)
	}
	all = append(all, fileFields...)
	all = append(all, sfFields...)
	all = append(all, notionFields...)

	schema := model.NewSchema(all)
	if schema.Len() == 0 {
		return nil, eris.New("registry: no target fields configured")
	}

	zap.L().Debug("registry: schema loaded",
		zap.Int("fields", schema.Len()),
		zap.Int("required", len(schema.Required())),
		zap.Int("custom", len(notionFields)),
	)
	return schema, nil
}
