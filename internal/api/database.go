package api

import (
	"context"
	"fmt"
	"io"
)

// Dataset is a server-owned dataset reference. The client holds a
// read-only cached copy, refreshed on demand.
type Dataset struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"db_path"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// ListDatasets returns the datasets registered for the current user.
func (c *Client) ListDatasets(ctx context.Context) ([]Dataset, error) {
	var datasets []Dataset
	if err := c.get(ctx, "/api/database/list", &datasets); err != nil {
		return nil, err
	}
	return datasets, nil
}

// AddDataset registers an existing server-side database file.
func (c *Client) AddDataset(ctx context.Context, name, path string) (*Dataset, error) {
	body := map[string]string{"name": name, "db_path": path}
	var ds Dataset
	if err := c.postJSON(ctx, "/api/database/add", body, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

type schemaResponse struct {
	Schema string `json:"schema"`
}

// DatasetSchema fetches the textual schema description for a dataset.
func (c *Client) DatasetSchema(ctx context.Context, id int64) (string, error) {
	var resp schemaResponse
	if err := c.get(ctx, fmt.Sprintf("/api/database/%d/schema", id), &resp); err != nil {
		return "", err
	}
	return resp.Schema, nil
}

// UploadDataset streams a file as a multipart body and returns the
// resulting dataset descriptor.
func (c *Client) UploadDataset(ctx context.Context, filename string, content io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := c.postMultipart(ctx, "/api/datasets/upload", filename, content, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}
