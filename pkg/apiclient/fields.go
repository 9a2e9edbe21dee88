package apiclient

import "fmt"

// FieldDefinition describes one data element of a field table.
type FieldDefinition struct {
	Number         int    `json:"number"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Type           string `json:"type"`
	LengthType     string `json:"lengthType"`
	Length         int    `json:"length"`
	DataEncoding   string `json:"dataEncoding"`
	LengthEncoding string `json:"lengthEncoding"`
	Sensitive      bool   `json:"sensitive"`
}

// FieldTable is one provider's field definition set.
type FieldTable struct {
	Provider string            `json:"provider"`
	Source   string            `json:"source,omitempty"`
	Fields   []FieldDefinition `json:"fields"`
}

// ReloadResult reports a completed field table reload.
type ReloadResult struct {
	Provider string `json:"provider"`
	Fields   int    `json:"fields"`
}

// ListFieldProviders returns the registered field table providers.
func (c *Client) ListFieldProviders() ([]string, error) {
	var resp struct {
		Providers []string `json:"providers"`
	}
	if err := c.get("/api/v1/fields", &resp); err != nil {
		return nil, err
	}
	return resp.Providers, nil
}

// GetFieldTable returns one provider's field definitions.
func (c *Client) GetFieldTable(provider string) (*FieldTable, error) {
	var resp FieldTable
	if err := c.get(fmt.Sprintf("/api/v1/fields/%s", provider), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReloadFieldTable re-reads a provider's definition file from disk.
func (c *Client) ReloadFieldTable(provider string) (*ReloadResult, error) {
	var resp ReloadResult
	if err := c.post(fmt.Sprintf("/api/v1/fields/%s/reload", provider), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
