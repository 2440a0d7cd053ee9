package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// pageSize is the maximum page size the query endpoint accepts.
const pageSize = 100

// EachPage calls fn for every page of dbID matching filter, following
// cursors until the result set is exhausted or fn returns an error.
func EachPage(ctx context.Context, c Client, dbID string, filter notionapi.Filter, fn func(notionapi.Page) error) error {
	var cursor notionapi.Cursor
	for {
		resp, err := c.Query(ctx, dbID, &notionapi.DatabaseQueryRequest{
			Filter:      filter,
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return err
		}
		for _, p := range resp.Results {
			if err := fn(p); err != nil {
				return err
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return nil
		}
		cursor = resp.NextCursor
	}
}

// QueryByStatus returns the pages whose Status property equals status.
func QueryByStatus(ctx context.Context, c Client, dbID, status string) ([]notionapi.Page, error) {
	filter := notionapi.PropertyFilter{
		Property: "Status",
		Status:   &notionapi.StatusFilterCondition{Equals: status},
	}
	var pages []notionapi.Page
	err := EachPage(ctx, c, dbID, filter, func(p notionapi.Page) error {
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: %s pages", status)
	}
	return pages, nil
}

// PropertyTypes returns the column types of a database keyed by property
// name.
func PropertyTypes(ctx context.Context, c Client, dbID string) (map[string]notionapi.PropertyConfigType, error) {
	db, err := c.Database(ctx, dbID)
	if err != nil {
		return nil, err
	}
	types := make(map[string]notionapi.PropertyConfigType, len(db.Properties))
	for name, cfg := range db.Properties {
		if cfg != nil {
			types[name] = cfg.GetType()
		}
	}
	return types, nil
}
