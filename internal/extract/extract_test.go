package extract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/sitelens/internal/extract"
	"github.com/tyemirov/sitelens/internal/types"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name      string
		fileName  string
		extension string
		kind      types.FileKind
	}{
		{name: "server script", fileName: "index.php", extension: ".php", kind: types.KindServerScript},
		{name: "markup", fileName: "about.html", extension: ".html", kind: types.KindMarkup},
		{name: "script with dotted name", fileName: "app.min.js", extension: ".js", kind: types.KindScript},
		{name: "stylesheet", fileName: "site.css", extension: ".css", kind: types.KindStylesheet},
		{name: "case sensitive", fileName: "LEGACY.PHP", extension: ".PHP", kind: types.KindUnknown},
		{name: "similar extension", fileName: "page.htm", extension: ".htm", kind: types.KindUnknown},
		{name: "no extension", fileName: "README", extension: "", kind: types.KindUnknown},
		{name: "leading dot only", fileName: ".htaccess", extension: "", kind: types.KindUnknown},
		{name: "dot name with extension", fileName: ".env.js", extension: ".js", kind: types.KindScript},
		{name: "bare extension name", fileName: ".css", extension: "", kind: types.KindUnknown},
		{name: "trailing dot", fileName: "archive.", extension: ".", kind: types.KindUnknown},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.extension, extract.Extension(testCase.fileName))
			require.Equal(t, testCase.kind, extract.Classify(testCase.fileName))
		})
	}
}

func TestExtractUnknownKindReturnsNil(t *testing.T) {
	require.Nil(t, extract.Extract(types.KindUnknown, "function foo() {}"))
	_, found := extract.For(types.KindUnknown)
	require.False(t, found)
}

func TestExtractServerScript(t *testing.T) {
	t.Run("function and class", func(t *testing.T) {
		fields := extract.Extract(types.KindServerScript, "<?php\nclass Bar {\n  public function foo($a) {}\n}\n")
		serverScript, ok := fields.(*types.ServerScriptFields)
		require.True(t, ok)
		require.Equal(t, []string{"foo"}, serverScript.Functions)
		require.Equal(t, []string{"Bar"}, serverScript.Classes)
		require.Empty(t, serverScript.Includes)
		require.NotNil(t, serverScript.Includes)
	})

	t.Run("includes in order", func(t *testing.T) {
		content := "<?php\nrequire_once 'config.php';\ninclude \"lib/helpers.php\";\nrequire 'db.php';\ninclude_once \"lib/helpers.php\";\n"
		serverScript := extract.ExtractServerScript(content).(*types.ServerScriptFields)
		require.Equal(t, []types.IncludeDirective{
			{Kind: "require_once", Target: "config.php"},
			{Kind: "include", Target: "lib/helpers.php"},
			{Kind: "require", Target: "db.php"},
			{Kind: "include_once", Target: "lib/helpers.php"},
		}, serverScript.Includes)
	})

	t.Run("duplicates kept", func(t *testing.T) {
		serverScript := extract.ExtractServerScript("function render() {}\nfunction render () {}\n").(*types.ServerScriptFields)
		require.Equal(t, []string{"render", "render"}, serverScript.Functions)
	})
}

func TestExtractMarkup(t *testing.T) {
	t.Run("title and meta tags", func(t *testing.T) {
		content := "<html><head>\n<META charset=\"utf-8\">\n<meta name=\"description\" content=\"Demo\">\n<TITLE>Hello\nWorld</TITLE>\n<title>Second</title>\n</head></html>"
		markup := extract.ExtractMarkup(content).(*types.MarkupFields)
		require.Equal(t, "Hello\nWorld", markup.Title)
		require.Equal(t, []string{`charset="utf-8"`, `name="description" content="Demo"`}, markup.MetaTags)
	})

	t.Run("missing title", func(t *testing.T) {
		markup := extract.ExtractMarkup("<html><body>plain</body></html>").(*types.MarkupFields)
		require.Equal(t, "No title found", markup.Title)
		require.Equal(t, extract.MissingTitle, markup.Title)
		require.NotNil(t, markup.MetaTags)
		require.Empty(t, markup.MetaTags)
	})

	t.Run("empty title is still a title", func(t *testing.T) {
		markup := extract.ExtractMarkup("<title></title>").(*types.MarkupFields)
		require.Equal(t, "", markup.Title)
	})
}

func TestExtractScript(t *testing.T) {
	content := "function foo() {}\nvar a = 1;\nfunction foo() {}\nlet b=2;\nconst c = 3;\n"
	script := extract.Extract(types.KindScript, content).(*types.ScriptFields)
	require.Equal(t, []string{"foo", "foo"}, script.Functions)
	require.Equal(t, []types.VariableDeclaration{
		{Keyword: "var", Name: "a"},
		{Keyword: "let", Name: "b"},
		{Keyword: "const", Name: "c"},
	}, script.Variables)
}

func TestExtractScriptKeepsNaiveBoundaries(t *testing.T) {
	script := extract.ExtractScript("myfunction helper() {}\nlet\ncount\n= 0;\nconst x;").(*types.ScriptFields)
	require.Equal(t, []string{"helper"}, script.Functions)
	require.Equal(t, []types.VariableDeclaration{{Keyword: "let", Name: "count"}}, script.Variables)
}

func TestExtractTreatsUnicodeSpaceAsWhitespace(t *testing.T) {
	script := extract.ExtractScript("function\u00a0foo() {}\nconst\u2003ready\u00a0= true;").(*types.ScriptFields)
	require.Equal(t, []string{"foo"}, script.Functions)
	require.Equal(t, []types.VariableDeclaration{{Keyword: "const", Name: "ready"}}, script.Variables)

	stylesheet := extract.ExtractStylesheet("p\u00a0{ color:\u00a0red; }").(*types.StylesheetFields)
	require.Equal(t, []string{"p"}, stylesheet.Selectors)
	require.Equal(t, []types.StyleProperty{{Name: "color", Value: "red"}}, stylesheet.Properties)

	serverScript := extract.ExtractServerScript("class\u00a0Page {}\ninclude\x0b'header.php';").(*types.ServerScriptFields)
	require.Equal(t, []string{"Page"}, serverScript.Classes)
	require.Equal(t, []types.IncludeDirective{{Kind: "include", Target: "header.php"}}, serverScript.Includes)

	markup := extract.ExtractMarkup("<meta\u00a0charset=\"utf-8\">").(*types.MarkupFields)
	require.Equal(t, []string{"charset=\"utf-8\""}, markup.MetaTags)
}

func TestExtractStylesheet(t *testing.T) {
	testCases := []struct {
		name       string
		content    string
		selectors  []string
		properties []types.StyleProperty
	}{
		{
			name:       "single rule",
			content:    "a.b { color: red; }",
			selectors:  []string{"a.b"},
			properties: []types.StyleProperty{{Name: "color", Value: "red"}},
		},
		{
			name:      "selector list keeps last token",
			content:   "body, h1 {\n  margin: 0;\n  font-family: \"Arial\", sans-serif;\n}",
			selectors: []string{"h1"},
			properties: []types.StyleProperty{
				{Name: "margin", Value: "0"},
				{Name: "font-family", Value: "\"Arial\", sans-serif"},
			},
		},
		{
			name:       "value keeps trailing whitespace",
			content:    "p { color : blue ; }",
			selectors:  []string{"p"},
			properties: []types.StyleProperty{{Name: "color", Value: "blue "}},
		},
		{
			name:       "pseudo class over-matches",
			content:    "a:hover { color: red; }",
			selectors:  []string{"a:hover"},
			properties: []types.StyleProperty{{Name: "a", Value: "hover { color: red"}},
		},
		{
			name:       "empty",
			content:    "",
			selectors:  []string{},
			properties: []types.StyleProperty{},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			stylesheet := extract.ExtractStylesheet(testCase.content).(*types.StylesheetFields)
			require.Equal(t, testCase.selectors, stylesheet.Selectors)
			require.Equal(t, testCase.properties, stylesheet.Properties)
		})
	}
}

func TestStrategiesAreDeterministic(t *testing.T) {
	content := "<title>x</title>function a(){} class B {} var c = 1; d { e: f; }"
	for _, extension := range extract.SupportedExtensions() {
		kind := extract.Classify("file" + extension)
		require.True(t, kind.Recognized(), extension)
		require.Equal(t, extract.Extract(kind, content), extract.Extract(kind, content))
	}
}
