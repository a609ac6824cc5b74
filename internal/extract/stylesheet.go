package extract

import "github.com/tyemirov/sitelens/internal/types"

// ExtractStylesheet collects the token before every opening brace and every name: value; pair.
// Properties are not scoped to their rule block.
func ExtractStylesheet(content string) types.StructuralFields {
	pairs := pairGroups(propertyPattern, content)
	properties := make([]types.StyleProperty, 0, len(pairs))
	for _, pair := range pairs {
		properties = append(properties, types.StyleProperty{Name: pair[0], Value: pair[1]})
	}
	return &types.StylesheetFields{
		Selectors:  firstGroups(selectorPattern, content),
		Properties: properties,
	}
}
