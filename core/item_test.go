package core

import (
	"testing"

	"github.com/rushteam/recserve/pkg/utils"
)

func TestNewItem_PresetsSentinelRanks(t *testing.T) {
	it := NewItem(42)
	if it.ID != 42 {
		t.Errorf("ID = %d", it.ID)
	}
	for _, feat := range []string{FeatCFRank, FeatALSRank, FeatPopRank, FeatNeuralRank} {
		if got := it.Features[feat]; got != AbsentRank {
			t.Errorf("%s = %v, want sentinel %v", feat, got, AbsentRank)
		}
	}
	// overall_rank / emb_sim 由各阶段写入，初始不预置
	if _, ok := it.Features[FeatOverallRank]; ok {
		t.Error("overall_rank should not be preset")
	}
}

func TestItem_PutLabelMerges(t *testing.T) {
	it := NewItem(1)
	it.PutLabel("src", utils.Label{Value: "a", Source: "recall"})
	it.PutLabel("src", utils.Label{Value: "b", Source: "rank"})

	lbl := it.Labels["src"]
	if lbl.Value != "a|b" || lbl.Source != "recall,rank" {
		t.Errorf("merged label = %+v", lbl)
	}
}

func TestContextOverride_Empty(t *testing.T) {
	var nilOverride *ContextOverride
	if !nilOverride.Empty() {
		t.Error("nil override should be empty")
	}
	if !(&ContextOverride{}).Empty() {
		t.Error("zero override should be empty")
	}

	os := 2
	if (&ContextOverride{OS: &os}).Empty() {
		t.Error("override with OS should not be empty")
	}
}

func TestDefaultUserContext(t *testing.T) {
	got := DefaultUserContext()
	if got.Device != -1 || got.OS != -1 || got.Country != "" {
		t.Errorf("DefaultUserContext() = %+v", got)
	}
}

func TestDomainErrorCheckers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"invalid input", NewDomainError(ModuleService, ErrorCodeInvalidInput, "bad"), IsInvalidInput, true},
		{"invalid artifact", NewDomainError(ModuleArtifact, ErrorCodeInvalidArtifact, "bad"), IsInvalidArtifact, true},
		{"not found", NewDomainError(ModuleStore, ErrorCodeNotFound, "missing"), IsNotFound, true},
		{"wrong code", NewDomainError(ModuleStore, ErrorCodeNotFound, "missing"), IsInvalidInput, false},
		{"nil error", nil, IsNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("check = %v, want %v", got, tt.want)
			}
		})
	}
}
