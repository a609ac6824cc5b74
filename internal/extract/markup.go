package extract

import "github.com/tyemirov/sitelens/internal/types"

// MissingTitle is the title reported for markup without a <title> element.
const MissingTitle = "No title found"

// ExtractMarkup collects the first title text and the attribute text of every meta tag.
func ExtractMarkup(content string) types.StructuralFields {
	title := MissingTitle
	if match := titlePattern.FindStringSubmatch(content); match != nil {
		title = match[1]
	}
	return &types.MarkupFields{
		Title:    title,
		MetaTags: firstGroups(metaPattern, content),
	}
}
