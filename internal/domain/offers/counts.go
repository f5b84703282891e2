package offers

// IngestCounts is the result payload of an ingestion run. Counts are entities touched,
// which includes rows updated in place on a re-run.
type IngestCounts struct {
	Offers            int `json:"offers"`
	Groups            int `json:"groups"`
	Variants          int `json:"variants"`
	Components        int `json:"components"`
	VariantComponents int `json:"variant_components"`
}

func (c *IngestCounts) Add(o IngestCounts) {
	c.Offers += o.Offers
	c.Groups += o.Groups
	c.Variants += o.Variants
	c.Components += o.Components
	c.VariantComponents += o.VariantComponents
}

// Map renders the counts in the job result shape.
func (c IngestCounts) Map() map[string]any {
	return map[string]any{
		"offers":             c.Offers,
		"groups":             c.Groups,
		"variants":           c.Variants,
		"components":         c.Components,
		"variant_components": c.VariantComponents,
	}
}
