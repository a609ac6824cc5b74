package extract

import "github.com/tyemirov/sitelens/internal/types"

// ExtractServerScript collects function names, class names and include/require targets.
func ExtractServerScript(content string) types.StructuralFields {
	pairs := pairGroups(includePattern, content)
	includes := make([]types.IncludeDirective, 0, len(pairs))
	for _, pair := range pairs {
		includes = append(includes, types.IncludeDirective{Kind: pair[0], Target: pair[1]})
	}
	return &types.ServerScriptFields{
		Functions: firstGroups(functionPattern, content),
		Classes:   firstGroups(classPattern, content),
		Includes:  includes,
	}
}
