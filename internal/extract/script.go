package extract

import "github.com/tyemirov/sitelens/internal/types"

// ExtractScript collects function names and var/let/const declarations.
func ExtractScript(content string) types.StructuralFields {
	pairs := pairGroups(variableDeclarationPattern, content)
	variables := make([]types.VariableDeclaration, 0, len(pairs))
	for _, pair := range pairs {
		variables = append(variables, types.VariableDeclaration{Keyword: pair[0], Name: pair[1]})
	}
	return &types.ScriptFields{
		Functions: firstGroups(functionPattern, content),
		Variables: variables,
	}
}
