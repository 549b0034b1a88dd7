package dsl

import (
	"testing"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pkg/utils"
)

func TestCompile_BadExpr(t *testing.T) {
	if _, err := Compile("item.id &&"); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestProgram_Eval(t *testing.T) {
	item := core.NewItem(42)
	item.Score = 0.8
	item.Features["pop_rank"] = 3.0
	item.PutLabel("recall_source", utils.Label{Value: "recall.hot", Source: "recall"})

	rctx := &core.RecommendContext{
		UserID: 7,
		Used:   core.UserContext{Device: 1, OS: 2, Country: "US"},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"item.id == 42", true},
		{"item.id > 100", false},
		{"item.score >= 0.5", true},
		{"item.features.pop_rank < 10.0", true},
		{`ctx.country == "US"`, true},
		{"ctx.os == 2 && ctx.device == 1", true},
		{`item.labels.recall_source.contains("hot")`, true},
		{"ctx.user_id == 8", false},
		// 非布尔结果按 false 处理
		{"item.id", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			prg, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v", tt.expr, err)
			}
			got, err := prg.Eval(item, rctx)
			if err != nil {
				t.Fatalf("Eval(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestProgram_EvalNilItem(t *testing.T) {
	prg, err := Compile("item.id == 1")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	got, err := prg.Eval(nil, nil)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if got {
		t.Error("Eval(nil) = true, want false")
	}
}
