package extract

import "regexp"

const (
	// word matches the Unicode word characters a text-mode \w accepts.
	word = `[\p{L}\p{N}_]`
	// spaceChars lists the Unicode whitespace a text-mode \s accepts.
	spaceChars = `\s\v\p{Z}\x1c-\x1f\x85`
	space      = `[` + spaceChars + `]`
	nonSpace   = `[^` + spaceChars + `]`
)

var (
	functionPattern            = regexp.MustCompile(`function` + space + `+(` + word + `+)` + space + `*\(`)
	classPattern               = regexp.MustCompile(`class` + space + `+(` + word + `+)`)
	includePattern             = regexp.MustCompile(`(include|require|include_once|require_once)` + space + `+['"](.+?)['"]`)
	titlePattern               = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
	metaPattern                = regexp.MustCompile(`(?i)<meta` + space + `+(.+?)>`)
	variableDeclarationPattern = regexp.MustCompile(`(var|let|const)` + space + `+(` + word + `+)` + space + `*=`)
	selectorPattern            = regexp.MustCompile(`([^` + spaceChars + `,{]+)` + space + `*\{`)
	propertyPattern            = regexp.MustCompile(`(` + nonSpace + `+)` + space + `*:` + space + `*([^;]+);`)
)

// firstGroups returns capture group 1 of every match in source order.
func firstGroups(pattern *regexp.Regexp, content string) []string {
	matches := pattern.FindAllStringSubmatch(content, -1)
	groups := make([]string, 0, len(matches))
	for _, match := range matches {
		groups = append(groups, match[1])
	}
	return groups
}

// pairGroups returns capture groups 1 and 2 of every match in source order.
func pairGroups(pattern *regexp.Regexp, content string) [][2]string {
	matches := pattern.FindAllStringSubmatch(content, -1)
	pairs := make([][2]string, 0, len(matches))
	for _, match := range matches {
		pairs = append(pairs, [2]string{match[1], match[2]})
	}
	return pairs
}
