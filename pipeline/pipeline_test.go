package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/recserve/core"
)

type appendNode struct {
	name string
	id   int64
	err  error
}

func (n *appendNode) Name() string { return n.name }
func (n *appendNode) Kind() Kind   { return KindRecall }

func (n *appendNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipeline_RunInOrder(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&appendNode{name: "a", id: 1},
		&appendNode{name: "b", id: 2},
		&appendNode{name: "c", id: 3},
	}}

	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 3 || out[0].ID != 1 || out[2].ID != 3 {
		t.Errorf("out = %v", out)
	}
}

func TestPipeline_NodeErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&appendNode{name: "a", id: 1},
		&appendNode{name: "b", err: boom},
		&appendNode{name: "c", id: 3},
	}}

	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want boom", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	data := `
pipeline:
  name: warm
  nodes:
    - type: recall.fanout
      config:
        max_pool: 500
    - type: rerank.topn
      config:
        n: 10
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if cfg.Pipeline.Name != "warm" || len(cfg.Pipeline.Nodes) != 2 {
		t.Errorf("cfg = %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.Nodes[0].Type != "recall.fanout" {
		t.Errorf("node[0] = %+v", cfg.Pipeline.Nodes[0])
	}
	if got := cfg.Pipeline.Nodes[1].Config["n"]; got != 10 {
		t.Errorf("topn config n = %v (%T)", got, got)
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	if _, err := LoadFromYAML(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
