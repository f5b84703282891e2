package extraction

import (
	"fmt"
	"strings"
)

const systemPrompt = "Du extrahierst strukturierte Daten aus deutschen Leistungsverzeichnissen (LV-Listen). " +
	"Antworte ausschließlich mit JSON, ohne Erklärungen."

func groupsPrompt(fullText string) string {
	return fmt.Sprintf(`Task: Extract the product groups from the German LV-Liste text.
Output: Return only JSON that matches the schema below, no prose.

Input format: raw text from a PDF (German), possibly with printed page numbers ("Seite: N").

Your job:
1. Find the product groups.
2. Extract the title, the printed page range and the product group number.
3. Normalize trivial whitespace; keep German umlauts.

Schema:
%s

Input:
%s
`, groupsSchemaDoc, fullText)
}

func variantsPrompt(groupNo, groupTitle, groupText string) string {
	return fmt.Sprintf(`Task: Extract the product variants for the product group %s %s from the German LV-Liste text.
Output: Return only JSON that matches the schema below, no prose.

Input format: raw text from the PDF pages (German) that cover this product group.

Your job:
1. Find the product variants.
2. Extract the title, the printed page range, the product variant number and the text.
   The title is the Kurztext (short description), the text is the Langtext (full description).
3. Normalize trivial whitespace; keep German umlauts.

Schema:
%s

Input:
%s
`, groupNo, groupTitle, variantsSchemaDoc, groupText)
}

// VariantLine is the component prompt's view of one extracted variant.
type VariantLine struct {
	No    string
	Title string
	Text  string
}

func componentsPrompt(groupNo, groupTitle string, variants []VariantLine) string {
	lines := make([]string, 0, len(variants))
	for _, v := range variants {
		lines = append(lines, fmt.Sprintf("%s: %s text: %s", v.No, v.Title, v.Text))
	}
	return fmt.Sprintf(`Task: Extract the required components for the product group %s %s from the German LV-Liste text.
The components are the parts required to assemble the product. Several variants can require the same component.
Output: Return only JSON that matches the schema below, no prose.

Input format: the product variants of this group, one per line as "<variant_no>: <title> text: <text>".

Your job:
1. Find the required components.
2. For each component give its description and the variant numbers that require it.
3. Normalize trivial whitespace; keep German umlauts.

Schema:
%s

Product variants:
%s
`, groupNo, groupTitle, componentsSchemaDoc, strings.Join(lines, "\n"))
}
