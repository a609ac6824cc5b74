package analysis_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/tyemirov/sitelens/internal/analysis"
	"github.com/tyemirov/sitelens/internal/digest"
	"github.com/tyemirov/sitelens/internal/types"
)

const (
	pageContent       = "<html>\n<head><title>Home</title><meta charset=\"utf-8\"></head>\n</html>\n"
	serverContent     = "<?php\nrequire_once 'config.php';\nclass Bar {\n  function foo() {}\n}\n"
	stylesheetContent = "a.b { color: red; }"
	scriptContent     = "function init() {}\nconst ready = true;\n"
	logoContent       = "\x89PNG\x00\x01"
)

type stubCounter struct{}

func (stubCounter) Name() string { return "stub" }

func (stubCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

func writeFixture(t *testing.T, root string, relativePath string, content string) string {
	t.Helper()
	fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", relativePath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", relativePath, err)
	}
	return fullPath
}

func buildSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFixture(t, root, "index.html", pageContent)
	writeFixture(t, root, "about.php", serverContent)
	writeFixture(t, root, "css/site.css", stylesheetContent)
	writeFixture(t, root, "js/app.js", scriptContent)
	writeFixture(t, root, "js/vendor/copy.js", scriptContent)
	writeFixture(t, root, "images/logo.png", logoContent)
	writeFixture(t, root, "README", "site notes\n")
	if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir empty: %v", err)
	}
	return root
}

func analyze(t *testing.T, options analysis.Options) *types.AnalysisTree {
	t.Helper()
	tree, err := analysis.Analyze(context.Background(), options)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	return tree
}

func lookupFile(t *testing.T, tree *types.AnalysisTree, directoryPath string, name string) *types.FileRecord {
	t.Helper()
	for _, directory := range tree.Directories() {
		if directory.RelativePath != directoryPath {
			continue
		}
		file, ok := directory.Children[name].(*types.FileRecord)
		if !ok {
			t.Fatalf("%s/%s is not a file record", directoryPath, name)
		}
		return file
	}
	t.Fatalf("directory %q not found", directoryPath)
	return nil
}

func TestAnalyzeRecordsEveryDirectoryOnce(t *testing.T) {
	tree := analyze(t, analysis.Options{Root: buildSite(t)})

	var relativePaths []string
	for _, directory := range tree.Directories() {
		relativePaths = append(relativePaths, directory.RelativePath)
	}
	expected := []string{"", "css", "empty", "images", "js", "js/vendor"}
	if !reflect.DeepEqual(relativePaths, expected) {
		t.Fatalf("expected directories %v, got %v", expected, relativePaths)
	}

	document := tree.Document()
	if len(document) != len(expected) {
		t.Fatalf("expected %d document keys, got %d", len(expected), len(document))
	}
	for _, relativePath := range expected {
		if _, ok := document[relativePath]; !ok {
			t.Fatalf("document missing directory %q", relativePath)
		}
	}
}

func TestAnalyzeUnknownFileCarriesOnlyBaselineMetadata(t *testing.T) {
	tree := analyze(t, analysis.Options{Root: buildSite(t)})
	logo := lookupFile(t, tree, "images", "logo.png")

	if logo.Content != nil || logo.LineCount != nil || logo.Structure != nil {
		t.Fatalf("unknown file must not carry content or structure: %+v", logo)
	}
	if logo.Hash == "" || logo.Size == nil || *logo.Size != int64(len(logoContent)) {
		t.Fatalf("unknown file must carry baseline metadata: %+v", logo)
	}
	if logo.Extension != ".png" || logo.Permissions == "" || logo.Modified.IsZero() {
		t.Fatalf("unexpected baseline metadata: %+v", logo)
	}

	readme := lookupFile(t, tree, "", "README")
	if readme.Extension != "" || readme.Content != nil {
		t.Fatalf("unexpected README record: %+v", readme)
	}
}

func TestAnalyzeExtractsRecognizedFiles(t *testing.T) {
	tree := analyze(t, analysis.Options{Root: buildSite(t)})

	server := lookupFile(t, tree, "", "about.php")
	serverFields, ok := server.Structure.(*types.ServerScriptFields)
	if !ok {
		t.Fatalf("expected server-script fields, got %T", server.Structure)
	}
	if !reflect.DeepEqual(serverFields.Functions, []string{"foo"}) || !reflect.DeepEqual(serverFields.Classes, []string{"Bar"}) {
		t.Fatalf("unexpected server-script fields: %+v", serverFields)
	}
	if server.Content == nil || *server.Content != serverContent {
		t.Fatalf("expected content to be captured")
	}
	if server.LineCount == nil || *server.LineCount != 6 {
		t.Fatalf("expected 6 lines, got %v", server.LineCount)
	}

	page := lookupFile(t, tree, "", "index.html")
	if markup := page.Structure.(*types.MarkupFields); markup.Title != "Home" {
		t.Fatalf("unexpected title %q", markup.Title)
	}

	stylesheet := lookupFile(t, tree, "css", "site.css")
	stylesheetFields := stylesheet.Structure.(*types.StylesheetFields)
	if !reflect.DeepEqual(stylesheetFields.Selectors, []string{"a.b"}) {
		t.Fatalf("unexpected selectors %v", stylesheetFields.Selectors)
	}
	if !reflect.DeepEqual(stylesheetFields.Properties, []types.StyleProperty{{Name: "color", Value: "red"}}) {
		t.Fatalf("unexpected properties %v", stylesheetFields.Properties)
	}
}

func TestAnalyzeDigestsAreContentAddressed(t *testing.T) {
	tree := analyze(t, analysis.Options{Root: buildSite(t)})
	first := lookupFile(t, tree, "js", "app.js")
	second := lookupFile(t, tree, "js/vendor", "copy.js")
	if first.Hash == "" || first.Hash != second.Hash {
		t.Fatalf("identical content must share a digest: %q vs %q", first.Hash, second.Hash)
	}
	stylesheet := lookupFile(t, tree, "css", "site.css")
	if stylesheet.Hash == first.Hash {
		t.Fatalf("different content must not share a digest")
	}
}

func TestAnalyzeUsesConfiguredHasher(t *testing.T) {
	root := buildSite(t)
	hasher, err := digest.New(digest.AlgorithmMD5)
	if err != nil {
		t.Fatalf("digest.New: %v", err)
	}
	tree := analyze(t, analysis.Options{Root: root, Hasher: hasher})
	stylesheet := lookupFile(t, tree, "css", "site.css")
	if stylesheet.Hash != hasher.SumBytes([]byte(stylesheetContent)) {
		t.Fatalf("expected md5 digest, got %s", stylesheet.Hash)
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	root := buildSite(t)
	first, err := json.Marshal(analyze(t, analysis.Options{Root: root}).Document())
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	second, err := json.Marshal(analyze(t, analysis.Options{Root: root}).Document())
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("re-analysis of an unchanged tree differs")
	}
}

func TestAnalyzeRootErrors(t *testing.T) {
	root := t.TempDir()
	filePath := writeFixture(t, root, "index.html", pageContent)

	testCases := []struct {
		name string
		root string
	}{
		{name: "missing root", root: filepath.Join(root, "missing")},
		{name: "root is a file", root: filePath},
		{name: "empty root", root: ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			tree, err := analysis.Analyze(context.Background(), analysis.Options{Root: testCase.root})
			var scanError *types.ScanError
			if !errors.As(err, &scanError) {
				t.Fatalf("expected ScanError, got %v", err)
			}
			if tree != nil {
				t.Fatalf("expected no tree on scan error")
			}
		})
	}
}

func TestAnalyzeUnlistableDirectoryAborts(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}
	root := buildSite(t)
	locked := filepath.Join(root, "js", "vendor")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := analysis.Analyze(context.Background(), analysis.Options{Root: root})
	var scanError *types.ScanError
	if !errors.As(err, &scanError) {
		t.Fatalf("expected ScanError, got %v", err)
	}
	if scanError.Path != locked {
		t.Fatalf("expected error for %s, got %s", locked, scanError.Path)
	}
}

func TestAnalyzeUnreadableFileDegrades(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced")
	}
	root := buildSite(t)
	lockedPath := filepath.Join(root, "about.php")
	if err := os.Chmod(lockedPath, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(lockedPath, 0o644) })

	var warnings []error
	tree := analyze(t, analysis.Options{Root: root, Warn: func(err error) { warnings = append(warnings, err) }})
	locked := lookupFile(t, tree, "", "about.php")
	if locked.Size == nil || locked.Permissions != "000" {
		t.Fatalf("expected stat metadata to survive: %+v", locked)
	}
	if locked.Hash != "" || locked.Content != nil || locked.Structure != nil {
		t.Fatalf("expected unreadable fields to be absent: %+v", locked)
	}
	if len(warnings) != 1 || len(tree.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	var readError *types.FileReadError
	if !errors.As(warnings[0], &readError) || readError.Op != types.FileOperationRead {
		t.Fatalf("expected read FileReadError, got %v", warnings[0])
	}
	if page := lookupFile(t, tree, "", "index.html"); page.Content == nil {
		t.Fatalf("expected the walk to continue after the failure")
	}
}

func TestAnalyzeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := analysis.Analyze(ctx, analysis.Options{Root: buildSite(t)})
	var scanError *types.ScanError
	if !errors.As(err, &scanError) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled ScanError, got %v", err)
	}
}

func TestAnalyzeReportsMonotonicProgress(t *testing.T) {
	var reports []analysis.Progress
	analyze(t, analysis.Options{Root: buildSite(t), Progress: func(progress analysis.Progress) {
		reports = append(reports, progress)
	}})
	if len(reports) != 7 {
		t.Fatalf("expected 7 file reports, got %d", len(reports))
	}
	for index := 1; index < len(reports); index++ {
		if reports[index].Files <= reports[index-1].Files || reports[index].Directories < reports[index-1].Directories {
			t.Fatalf("progress went backwards: %+v then %+v", reports[index-1], reports[index])
		}
	}
}

func TestAnalyzeAppliesIgnorePatterns(t *testing.T) {
	tree := analyze(t, analysis.Options{Root: buildSite(t), IgnorePatterns: []string{"js/vendor/", "*.png"}})
	for _, directory := range tree.Directories() {
		if directory.RelativePath == "js/vendor" {
			t.Fatalf("expected js/vendor to be excluded")
		}
		if directory.RelativePath == "images" && len(directory.Children) != 0 {
			t.Fatalf("expected images to be empty, got %v", directory.Children)
		}
	}
}

func TestAnalyzeCountsTokens(t *testing.T) {
	tree := analyze(t, analysis.Options{Root: buildSite(t), TokenCounter: stubCounter{}})
	if stylesheet := lookupFile(t, tree, "css", "site.css"); stylesheet.Tokens != len(stylesheetContent) {
		t.Fatalf("expected %d tokens, got %d", len(stylesheetContent), stylesheet.Tokens)
	}
	if logo := lookupFile(t, tree, "images", "logo.png"); logo.Tokens != 0 {
		t.Fatalf("unknown files are not tokenized")
	}
}

func TestAnalyzeFollowsFileLinksOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symbolic links need elevated privileges")
	}
	root := buildSite(t)
	if err := os.Symlink(filepath.Join(root, "css", "site.css"), filepath.Join(root, "linked.css")); err != nil {
		t.Fatalf("symlink file: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "js"), filepath.Join(root, "scripts")); err != nil {
		t.Fatalf("symlink directory: %v", err)
	}
	tree := analyze(t, analysis.Options{Root: root})
	if _, present := tree.Root.Children["scripts"]; present {
		t.Fatalf("directory links must not be recorded")
	}
	linked := lookupFile(t, tree, "", "linked.css")
	if linked.Structure == nil || linked.Hash != lookupFile(t, tree, "css", "site.css").Hash {
		t.Fatalf("file links must be analyzed like their target: %+v", linked)
	}
}

func TestDecodeText(t *testing.T) {
	testCases := []struct {
		name     string
		input    []byte
		expected string
	}{
		{name: "plain", input: []byte("body {}"), expected: "body {}"},
		{name: "invalid bytes dropped", input: []byte("a\xffb"), expected: "ab"},
		{name: "windows newlines", input: []byte("a\r\nb\rc"), expected: "a\nb\nc"},
		{name: "non ascii kept", input: []byte("título"), expected: "título"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := analysis.DecodeText(testCase.input); actual != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, actual)
			}
		})
	}
}
