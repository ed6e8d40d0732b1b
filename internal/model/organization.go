package model

// Organization is one directory-listed organization inside the target region.
// TaxID stays nil until enrichment finds a tax identifier for it.
type Organization struct {
	OrganizationID   string  `json:"organization_id"`
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	OrganizationName string  `json:"organization_name"`
	Description      string  `json:"description"`
	Address          string  `json:"address"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Zip              string  `json:"zip"`
	Categories       string  `json:"categories"`
	Revenue          int64   `json:"revenue"`
	TaxID            *string `json:"tax_id,omitempty"`
}

// HasTaxID reports whether enrichment produced a tax identifier.
func (o Organization) HasTaxID() bool {
	return o.TaxID != nil && *o.TaxID != ""
}

// TaxIDOrEmpty returns the tax identifier, or "" when it is unknown.
func (o Organization) TaxIDOrEmpty() string {
	if o.TaxID == nil {
		return ""
	}
	return *o.TaxID
}

// ExtractForm identifies one of the two government extract shapes.
type ExtractForm string

const (
	// Form990 is the standard return extract.
	Form990 ExtractForm = "990"
	// Form990EZ is the short-form return extract.
	Form990EZ ExtractForm = "990-EZ"
)

// ContributionColumn returns the extract column holding total contributions.
func (f ExtractForm) ContributionColumn() string {
	if f == Form990EZ {
		return "totcntrbs"
	}
	return "totcntrbgfts"
}

// TaxExtractRecord is one organization's row in a government extract.
type TaxExtractRecord struct {
	TaxID             string `json:"tax_id"`
	ContributionTotal int64  `json:"contribution_total"`
}

// CuratedListRecord is one entry of the curated women-and-girls roster.
type CuratedListRecord struct {
	TaxID string `json:"tax_id"`
	Name  string `json:"name"`
}
