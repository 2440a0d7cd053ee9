// Package salesforce reads Lead metadata from Salesforce and upserts
// imported leads through its REST API.
package salesforce

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client is the subset of the Salesforce REST API the importer uses.
type Client interface {
	Query(ctx context.Context, soql string, out any) error
	Insert(ctx context.Context, object string, records []map[string]any) ([]CollectionResult, error)
	Update(ctx context.Context, object string, records []CollectionRecord) ([]CollectionResult, error)
	Describe(ctx context.Context, object string) (*ObjectDescription, error)
}

// CollectionRecord is an existing record to update: its ID and the fields
// to set.
type CollectionRecord struct {
	ID     string
	Fields map[string]any
}

// CollectionResult is the per-record outcome of an insert or update.
type CollectionResult struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

// ObjectField is the part of a field's describe metadata used to build
// import targets.
type ObjectField struct {
	Name              string `json:"name"`
	Label             string `json:"label"`
	Type              string `json:"type"`
	Createable        bool   `json:"createable"`
	Nillable          bool   `json:"nillable"`
	DefaultedOnCreate bool   `json:"defaultedOnCreate"`
	Unique            bool   `json:"unique"`
	Custom            bool   `json:"custom"`
	Calculated        bool   `json:"calculated"`
}

// ObjectDescription is the describe result of an SObject.
type ObjectDescription struct {
	Name   string        `json:"name"`
	Label  string        `json:"label"`
	Fields []ObjectField `json:"fields"`
}

// ClientOption configures a Client built by NewClient.
type ClientOption func(*sfClient)

// WithRateLimit throttles API calls to rps per second. Without it calls are
// not throttled.
func WithRateLimit(rps float64) ClientOption {
	return func(c *sfClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// sfClient adapts go-salesforce. The library takes no context, so ctx only
// bounds the limiter wait.
type sfClient struct {
	sf      *salesforce.Salesforce
	limiter *rate.Limiter
}

// NewClient wraps an authenticated go-salesforce instance.
func NewClient(sf *salesforce.Salesforce, opts ...ClientOption) Client {
	c := &sfClient{sf: sf}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sfClient) wait(ctx context.Context, op string) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrapf(err, "sf: %s: rate limit", op)
	}
	return nil
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	if err := c.wait(ctx, "query"); err != nil {
		return err
	}
	if err := c.sf.Query(soql, out); err != nil {
		return eris.Wrap(err, "sf: query")
	}
	return nil
}

func (c *sfClient) Insert(ctx context.Context, object string, records []map[string]any) ([]CollectionResult, error) {
	if err := c.wait(ctx, "insert "+object); err != nil {
		return nil, err
	}
	res, err := c.sf.InsertCollection(object, records, maxBatchSize)
	if err != nil {
		return nil, eris.Wrapf(err, "sf: insert %s", object)
	}
	return collectionResults(res), nil
}

func (c *sfClient) Update(ctx context.Context, object string, records []CollectionRecord) ([]CollectionResult, error) {
	if err := c.wait(ctx, "update "+object); err != nil {
		return nil, err
	}
	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		row := make(map[string]any, len(rec.Fields)+1)
		for k, v := range rec.Fields {
			row[k] = v
		}
		row["Id"] = rec.ID
		rows[i] = row
	}
	res, err := c.sf.UpdateCollection(object, rows, maxBatchSize)
	if err != nil {
		return nil, eris.Wrapf(err, "sf: update %s", object)
	}
	return collectionResults(res), nil
}

func (c *sfClient) Describe(ctx context.Context, object string) (*ObjectDescription, error) {
	if err := c.wait(ctx, "describe "+object); err != nil {
		return nil, err
	}
	resp, err := c.sf.DoRequest(http.MethodGet, "/sobjects/"+object+"/describe", nil)
	if err != nil {
		return nil, eris.Wrapf(err, "sf: describe %s", object)
	}
	defer resp.Body.Close() //nolint:errcheck

	var desc ObjectDescription
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, eris.Wrapf(err, "sf: decode describe %s", object)
	}
	return &desc, nil
}

// collectionResults flattens go-salesforce results, keeping only error
// messages.
func collectionResults(res salesforce.SalesforceResults) []CollectionResult {
	out := make([]CollectionResult, len(res.Results))
	for i, r := range res.Results {
		out[i] = CollectionResult{ID: r.Id, Success: r.Success}
		for _, e := range r.Errors {
			out[i].Errors = append(out[i].Errors, e.Message)
		}
	}
	return out
}
