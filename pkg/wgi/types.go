package wgi

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SearchResult is the response of the directory base-search endpoint.
type SearchResult struct {
	Data  []Entry `json:"data"`
	Total *int    `json:"total,omitempty"`
	Meta  *struct {
		Total *int `json:"total,omitempty"`
	} `json:"meta,omitempty"`

	// Truncated is set by the client when the reported total exceeds the
	// number of entries returned in the single requested page.
	Truncated bool `json:"-"`
}

// TotalCount returns the total number of matches reported by the API, if any.
func (r *SearchResult) TotalCount() (int, bool) {
	if r.Total != nil {
		return *r.Total, true
	}
	if r.Meta != nil && r.Meta.Total != nil {
		return *r.Meta.Total, true
	}
	return 0, false
}

// Entry is one organization as listed by the directory search. Fields the
// pipeline has no use for (distance, icon, program linkage, redirect URL,
// relevance score) are not decoded.
type Entry struct {
	OrganizationID   Text       `json:"organizationId"`
	ID               Text       `json:"id"`
	Name             string     `json:"name"`
	OrganizationName string     `json:"organizationName"`
	Description      string     `json:"description"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	Zip              Text       `json:"zip"`
	Categories       Categories `json:"categories"`
	// Revenue is a json.Number, a string such as "(1200)" or "-", or nil.
	Revenue any `json:"revenue"`
}

// Detail is the single-organization record; only the tax identifier is used.
type Detail struct {
	OrganizationID Text   `json:"organizationId"`
	Name           string `json:"name"`
	EIN            Text   `json:"ein"`
}

// Text decodes a JSON string or number; null and absent leave it invalid.
type Text struct {
	Value string
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = Text{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text{Value: s, Valid: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = Text{Value: n.String(), Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// String returns the value, or "" when null.
func (t Text) String() string {
	return t.Value
}

// Categories decodes either a plain string, a list of strings, or a list of
// objects carrying a name.
type Categories []string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Categories) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = nil
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Categories{s}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	out := make(Categories, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var named struct {
			Name  string `json:"name"`
			Title string `json:"title"`
		}
		if err := json.Unmarshal(item, &named); err != nil {
			return err
		}
		if named.Name != "" {
			out = append(out, named.Name)
		} else if named.Title != "" {
			out = append(out, named.Title)
		}
	}
	*c = out
	return nil
}

// String joins the categories with "; ".
func (c Categories) String() string {
	return strings.Join(c, "; ")
}
