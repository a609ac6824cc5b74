package types_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tyemirov/sitelens/internal/types"
)

func fileRecord(name string, extension string, structure types.StructuralFields) *types.FileRecord {
	size := int64(len(name))
	return &types.FileRecord{
		Name:        name,
		Extension:   extension,
		Size:        &size,
		Modified:    time.Date(2024, 1, 2, 15, 4, 5, 0, time.Local),
		Permissions: "644",
		Hash:        "ab12",
		Structure:   structure,
	}
}

func sampleTree() *types.AnalysisTree {
	root := types.NewDirectoryRecord("")
	styles := types.NewDirectoryRecord("css")
	scripts := types.NewDirectoryRecord("js")
	vendor := types.NewDirectoryRecord("js/vendor")

	root.Children["index.html"] = fileRecord("index.html", ".html", &types.MarkupFields{Title: "Home"})
	root.Children["README"] = fileRecord("README", "", nil)
	root.Children["css"] = styles
	root.Children["js"] = scripts
	styles.Children["site.css"] = fileRecord("site.css", ".css", &types.StylesheetFields{})
	scripts.Children["app.js"] = fileRecord("app.js", ".js", &types.ScriptFields{Functions: []string{"init"}})
	scripts.Children["vendor"] = vendor
	vendor.Children["lib.js"] = fileRecord("lib.js", ".js", &types.ScriptFields{})

	return &types.AnalysisTree{RootPath: "/site", Root: root}
}

func TestWalkOrder(t *testing.T) {
	var visited []string
	err := types.Walk(sampleTree(), func(relativePath string, entry types.Entry) error {
		visited = append(visited, relativePath)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	expected := []string{"", "css", "css/site.css", "js", "js/vendor", "js/vendor/lib.js", "js/app.js", "README", "index.html"}
	if !reflect.DeepEqual(visited, expected) {
		t.Fatalf("expected %v, got %v", expected, visited)
	}
}

func TestWalkSkipAndAbort(t *testing.T) {
	var visited []string
	err := types.Walk(sampleTree(), func(relativePath string, entry types.Entry) error {
		visited = append(visited, relativePath)
		if relativePath == "js" {
			return types.ErrSkipDirectory
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	for _, relativePath := range visited {
		if relativePath == "js/app.js" || relativePath == "js/vendor" {
			t.Fatalf("expected js children to be skipped, visited %v", visited)
		}
	}

	stopError := errors.New("stop")
	err = types.Walk(sampleTree(), func(relativePath string, entry types.Entry) error {
		if relativePath == "css/site.css" {
			return stopError
		}
		return nil
	})
	if !errors.Is(err, stopError) {
		t.Fatalf("expected visitor error to propagate, got %v", err)
	}
}

func TestFilterByExtension(t *testing.T) {
	tree := sampleTree()
	filtered := types.FilterByExtension(tree, ".js")

	var filteredPaths []string
	types.Walk(filtered, func(relativePath string, entry types.Entry) error {
		filteredPaths = append(filteredPaths, relativePath)
		return nil
	})
	expected := []string{"", "js", "js/vendor", "js/vendor/lib.js", "js/app.js"}
	if !reflect.DeepEqual(filteredPaths, expected) {
		t.Fatalf("expected %v, got %v", expected, filteredPaths)
	}
	if len(tree.Root.Children) != 4 {
		t.Fatalf("input tree must not be modified, root has %d children", len(tree.Root.Children))
	}

	empty := types.FilterByExtension(tree, ".php")
	if empty.Root == nil || len(empty.Root.Children) != 0 {
		t.Fatalf("expected an empty root when nothing matches")
	}

	unfiltered := types.FilterByExtension(tree)
	if unfiltered.Summary() != tree.Summary() {
		t.Fatalf("expected a full copy without extensions")
	}
}

func TestSummary(t *testing.T) {
	summary := sampleTree().Summary()
	expected := types.OutputSummary{Directories: 4, Files: 5, Recognized: 4, Bytes: int64(len("index.html") + len("README") + len("site.css") + len("app.js") + len("lib.js"))}
	if summary != expected {
		t.Fatalf("expected %+v, got %+v", expected, summary)
	}
}

func TestDocumentShape(t *testing.T) {
	encoded, err := json.Marshal(sampleTree().Document())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 4 {
		t.Fatalf("expected one key per directory, got %v", reflect.ValueOf(decoded).MapKeys())
	}

	rootContents := decoded[""]["contents"].(map[string]any)
	nested := rootContents["js"].(map[string]any)
	if nested["type"] != types.NodeTypeDirectory {
		t.Fatalf("expected a nested directory object, got %v", nested)
	}
	nestedContents, ok := nested["contents"].(map[string]any)
	if !ok {
		t.Fatalf("nested directory must carry contents, got %v", nested)
	}
	if !reflect.DeepEqual(nestedContents, decoded["js"]["contents"]) {
		t.Fatalf("nested contents differ from the top-level entry: %v vs %v", nestedContents, decoded["js"]["contents"])
	}
	vendor := nestedContents["vendor"].(map[string]any)
	if _, ok := vendor["contents"].(map[string]any)["lib.js"]; !ok {
		t.Fatalf("expected lib.js inside nested vendor contents, got %v", vendor)
	}

	page := rootContents["index.html"].(map[string]any)
	if page["type"] != types.NodeTypeFile || page["title"] != "Home" || page["modified"] != "2024-01-02 15:04:05" {
		t.Fatalf("unexpected markup record %v", page)
	}
	if metaTags, ok := page["meta_tags"].([]any); !ok || len(metaTags) != 0 {
		t.Fatalf("expected empty meta_tags array, got %v", page["meta_tags"])
	}

	readme := rootContents["README"].(map[string]any)
	if readme["extension"] != "" {
		t.Fatalf("expected an empty extension, got %v", readme["extension"])
	}
	for _, absent := range []string{"content", "line_count", "title", "functions", "created"} {
		if _, present := readme[absent]; present {
			t.Fatalf("unknown file must not carry %s", absent)
		}
	}

	stylesheet := decoded["css"]["contents"].(map[string]any)["site.css"].(map[string]any)
	if selectors, ok := stylesheet["selectors"].([]any); !ok || len(selectors) != 0 {
		t.Fatalf("expected empty selectors array, got %v", stylesheet["selectors"])
	}
}

func TestPairsEncodeAsArrays(t *testing.T) {
	encoded, err := json.Marshal([]any{
		types.IncludeDirective{Kind: "require_once", Target: "config.php"},
		types.VariableDeclaration{Keyword: "const", Name: "ready"},
		types.StyleProperty{Name: "color", Value: "red"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	expected := `[["require_once","config.php"],["const","ready"],["color","red"]]`
	if string(encoded) != expected {
		t.Fatalf("expected %s, got %s", expected, encoded)
	}
}
