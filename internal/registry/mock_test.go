package registry

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/mock"
)

// mockNotionClient serves custom-field pages. Only Query is expected to be
// called by the registry.
type mockNotionClient struct {
	mock.Mock
}

func (m *mockNotionClient) Query(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	resp, _ := args.Get(0).(*notionapi.DatabaseQueryResponse)
	return resp, args.Error(1)
}

func (m *mockNotionClient) Database(ctx context.Context, dbID string) (*notionapi.Database, error) {
	args := m.Called(ctx, dbID)
	db, _ := args.Get(0).(*notionapi.Database)
	return db, args.Error(1)
}

func (m *mockNotionClient) CreatePage(ctx context.Context, dbID string, props notionapi.Properties) (*notionapi.Page, error) {
	args := m.Called(ctx, dbID, props)
	page, _ := args.Get(0).(*notionapi.Page)
	return page, args.Error(1)
}

func (m *mockNotionClient) UpdatePage(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, props)
	page, _ := args.Get(0).(*notionapi.Page)
	return page, args.Error(1)
}
