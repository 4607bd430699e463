package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/erlayout/pkg/cache"
	"github.com/matzehuels/erlayout/pkg/core/er"
	errs "github.com/matzehuels/erlayout/pkg/errors"
	"github.com/matzehuels/erlayout/pkg/graph"
)

func schoolDoc() er.Document {
	return er.Document{
		Entities: []er.Entity{{Name: "Student"}, {Name: "Course"}},
		Attributes: []er.Attribute{
			{Entity: "Student", Name: "ID", PrimaryKey: true},
			{Entity: "Student", Name: "Name"},
			{Entity: "Course", Name: "ID", PrimaryKey: true},
		},
		Relationships: []er.Relationship{
			{Name: "Takes", Entity1: "Student", Entity2: "Course", Cardinality: er.ManyToMany},
		},
	}
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatalf("NewRunner(nil, nil, nil) = %+v, want defaults", r)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestExecute(t *testing.T) {
	r := newFileRunner(t)
	ctx := context.Background()
	opts := Options{Provider: ProviderChain, Formats: []string{FormatJSON, FormatDOT}}

	res, err := r.Execute(ctx, schoolDoc(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
	if res.Stats.NodeCount != 6 {
		t.Errorf("NodeCount = %d, want 6", res.Stats.NodeCount)
	}
	if len(res.Layout.Nodes) != 6 {
		t.Errorf("layout has %d nodes, want 6", len(res.Layout.Nodes))
	}
	if len(res.DocHash) != 64 {
		t.Errorf("DocHash = %q", res.DocHash)
	}
	if res.Layout.Tier != "light" {
		t.Errorf("Tier = %q, want light", res.Layout.Tier)
	}

	l, err := graph.UnmarshalLayout(res.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if len(l.Nodes) != len(res.Layout.Nodes) {
		t.Error("json artifact should hold the computed layout")
	}
	if !bytes.HasPrefix(res.Artifacts[FormatDOT], []byte("graph ER {")) {
		t.Errorf("dot artifact = %.40q", res.Artifacts[FormatDOT])
	}

	again, err := r.Execute(ctx, schoolDoc(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !again.CacheInfo.LayoutHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want both hits", again.CacheInfo)
	}
	if !bytes.Equal(again.Artifacts[FormatDOT], res.Artifacts[FormatDOT]) {
		t.Error("cached artifacts should match the first run")
	}
}

func TestExecuteRefresh(t *testing.T) {
	r := newFileRunner(t)
	ctx := context.Background()
	opts := Options{Provider: ProviderChain}

	if _, err := r.Execute(ctx, schoolDoc(), opts); err != nil {
		t.Fatal(err)
	}
	opts.Refresh = true
	res, err := r.Execute(ctx, schoolDoc(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Errorf("refresh should bypass the cache, got %+v", res.CacheInfo)
	}
}

func TestExecuteTierChangesKey(t *testing.T) {
	r := newFileRunner(t)
	ctx := context.Background()

	if _, err := r.Execute(ctx, schoolDoc(), Options{Provider: ProviderChain}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, schoolDoc(), Options{Provider: ProviderChain, Tier: "medium"})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.LayoutHit {
		t.Error("a different tier should not reuse the cached layout")
	}
	if res.Layout.Tier != "medium" {
		t.Errorf("Tier = %q, want medium", res.Layout.Tier)
	}
}

func TestExecuteStrict(t *testing.T) {
	doc := schoolDoc()
	doc.Relationships[0].Cardinality = "many"

	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), doc, Options{Provider: ProviderChain, Strict: true})
	if !errs.Is(err, errs.ErrCodeInvalidDocument) {
		t.Fatalf("error = %v, want INVALID_DOCUMENT", err)
	}
}

func TestExecuteLenientReportsIssues(t *testing.T) {
	doc := schoolDoc()
	doc.Attributes = append(doc.Attributes, er.Attribute{Entity: "Nowhere", Name: "X"})

	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), doc, Options{Provider: ProviderChain})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Issues) == 0 {
		t.Error("dangling attribute should be reported as an issue")
	}
	if res.Stats.NodeCount != 6 {
		t.Errorf("NodeCount = %d, want 6", res.Stats.NodeCount)
	}
}

func TestExecuteEmptyDocument(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), er.Document{}, Options{})
	if !errs.Is(err, errs.ErrCodeInvalidDocument) {
		t.Fatalf("error = %v, want INVALID_DOCUMENT", err)
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), schoolDoc(), Options{Formats: []string{"gif"}})
	if !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Fatalf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestRenderHTML(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()
	res, err := r.Execute(ctx, schoolDoc(), Options{Provider: ProviderChain})
	if err != nil {
		t.Fatal(err)
	}

	out, err := r.Render(ctx, res.Layout, Options{Formats: []string{FormatHTML}, Title: "School"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := out[FormatHTML]
	if !bytes.Contains(html, []byte("School")) {
		t.Error("html output should contain the title")
	}
	if !bytes.Contains(html, []byte("echarts")) {
		t.Error("html output should load echarts")
	}
}

func TestExecuteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "school.yaml")
	yamlDoc := `entities:
  - name: Student
  - name: Course
attributes:
  - entity: Student
    name: ID
    primary_key: true
  - entity: Course
    name: ID
    primary_key: true
relationships:
  - name: Takes
    entity1: Student
    entity2: Course
    cardinality: "M:N"
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(nil, nil, nil)
	res, err := r.ExecuteFile(context.Background(), path, Options{Provider: ProviderChain, Strict: true})
	if err != nil {
		t.Fatalf("ExecuteFile: %v", err)
	}
	if res.Stats.NodeCount != 5 {
		t.Errorf("NodeCount = %d, want 5", res.Stats.NodeCount)
	}

	_, err = r.ExecuteFile(context.Background(), filepath.Join(dir, "missing.json"), Options{})
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.json", "b.json"} {
		data, err := graph.MarshalDocument(schoolDoc())
		if err != nil {
			t.Fatal(err)
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	paths = append(paths, filepath.Join(dir, "missing.json"))

	r := NewRunner(nil, nil, nil)
	items, err := r.Batch(context.Background(), paths, Options{Provider: ProviderChain}, 2)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for i, it := range items[:2] {
		if it.Path != paths[i] {
			t.Errorf("items[%d].Path = %q, want %q", i, it.Path, paths[i])
		}
		if it.Err != nil || it.Result == nil {
			t.Errorf("items[%d] = %v, want a result", i, it.Err)
		}
	}
	if items[2].Err == nil {
		t.Error("missing file should fail its item")
	}
}

func TestBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(nil, nil, nil)
	_, err := r.Batch(ctx, []string{"a.json"}, Options{}, 0)
	if err == nil {
		t.Error("cancelled context should stop the batch")
	}
}
