package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-importer/internal/fetcher"
	"github.com/sells-group/lead-importer/internal/importer"
	"github.com/sells-group/lead-importer/internal/model"
	"github.com/sells-group/lead-importer/internal/registry"
	"github.com/sells-group/lead-importer/internal/service"
	"github.com/sells-group/lead-importer/internal/store"
	"github.com/sells-group/lead-importer/internal/tabular"
	"github.com/sells-group/lead-importer/pkg/notion"
	sfpkg "github.com/sells-group/lead-importer/pkg/salesforce"
)

// importEnv holds the store, clients, and service a command needs.
type importEnv struct {
	Store   store.Store
	Service *service.Service
	Opener  *fetcher.Opener
}

// Close releases resources held by the environment.
func (e *importEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates config for mode, then builds the store, the target
// schema, the executors, and the service. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*importEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	var sfClient sfpkg.Client
	if cfg.Schema.Salesforce || (mode != "analyze" && cfg.Import.Executor == "salesforce") {
		sfClient, err = initSalesforce()
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	var notionClient notion.Client
	if cfg.Notion.Token != "" {
		notionClient = notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
	}

	schema, err := initSchema(ctx, sfClient, notionClient)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	executors := []importer.Executor{importer.DryRun{}}
	if sfClient != nil {
		executors = append(executors, sfpkg.NewLeadExecutor(sfClient, sfpkg.WithObject(cfg.Salesforce.Object)))
	}
	if mode != "analyze" && notionClient != nil && cfg.Notion.LeadDB != "" {
		executors = append(executors, notion.NewLeadExecutor(notionClient, cfg.Notion.LeadDB))
	}

	svc := service.New(schema, st, service.Options{
		SampleSize:        cfg.Import.SampleSize,
		PreviewRows:       cfg.Import.PreviewRows,
		MatchThreshold:    cfg.Import.TemplateMatchThreshold,
		AutoApplyTemplate: cfg.Import.AutoApplyTemplate,
	}, executors...)

	return &importEnv{Store: st, Service: svc, Opener: initOpener()}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "lead-importer.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (LEADIMPORT_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RateLimit)), nil
}

func initSchema(ctx context.Context, sf sfpkg.Client, nc notion.Client) (*model.Schema, error) {
	src := registry.Sources{
		Builtin: cfg.Schema.Builtin,
		File:    cfg.Schema.File,
	}
	if cfg.Schema.Salesforce {
		src.Salesforce = sf
		src.SFObject = cfg.Salesforce.Object
		src.SFUniqueField = cfg.Salesforce.UniqueField
	}
	if cfg.Schema.Notion {
		src.Notion = nc
		src.NotionFieldDB = cfg.Notion.FieldDB
	}

	schema, err := registry.Load(ctx, src)
	if err != nil {
		return nil, eris.Wrap(err, "load target schema")
	}
	zap.L().Debug("target schema loaded", zap.Int("fields", schema.Len()))
	return schema, nil
}

// initOpener builds the file opener. Remote files share the upload size cap.
func initOpener() *fetcher.Opener {
	timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second
	maxBytes := int64(cfg.Import.MaxUploadMB) << 20
	o := fetcher.NewOpener(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    timeout,
		MaxRetries: cfg.Fetch.MaxRetries,
		RateLimit:  cfg.Fetch.RateLimit,
	}, fetcher.FTPOptions{
		Timeout:  timeout,
		MaxBytes: maxBytes,
	})
	o.MaxBytes = maxBytes
	return o
}

// openTable fetches and decodes the file at location.
func openTable(ctx context.Context, opener *fetcher.Opener, location string) (*model.Table, string, error) {
	f, err := opener.Open(ctx, location)
	if err != nil {
		return nil, "", err
	}
	defer f.Body.Close() //nolint:errcheck

	t, err := tabular.Decode(f.Name, f.Body)
	if err != nil {
		return nil, "", eris.Wrapf(err, "decode %s", f.Name)
	}
	return t, f.Name, nil
}
