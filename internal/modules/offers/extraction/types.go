package extraction

// Group is one product group found in the full document text.
type Group struct {
	GroupNo  *string `json:"group_no"`
	Title    string  `json:"title"`
	PageFrom *int    `json:"page_from"`
	PageTo   *int    `json:"page_to"`
}

type groupsResponse struct {
	DocumentTitle *string `json:"document_title"`
	Groups        []Group `json:"groups"`
}

// Variant is one product variant of a group. Title is the Kurztext, Text the Langtext.
type Variant struct {
	VariantNo *string `json:"variant_no"`
	Title     string  `json:"title"`
	PageFrom  *int    `json:"page_from"`
	PageTo    *int    `json:"page_to"`
	Text      string  `json:"text"`
}

type variantsResponse struct {
	Variants []Variant `json:"variants"`
}

// Component is a required part shared by the listed variant numbers.
type Component struct {
	Description string   `json:"component_description"`
	VariantNos  []string `json:"variant_nos"`
}

type componentsResponse struct {
	Components []Component `json:"components"`
}
