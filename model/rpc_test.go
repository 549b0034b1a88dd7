package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRPCModel_PredictBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FeaturesList []map[string]float64 `json:"features_list"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		// 分数 = cf_rank，便于断言请求/响应对齐
		scores := make([]float64, len(req.FeaturesList))
		for i, f := range req.FeaturesList {
			scores[i] = f["cf_rank"]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"scores": scores})
	}))
	defer srv.Close()

	m := NewRPCModel("remote", srv.URL, 0)

	scores, err := m.PredictBatch([]map[string]float64{
		{"cf_rank": 1},
		{"cf_rank": 3},
	})
	if err != nil {
		t.Fatalf("PredictBatch() error = %v", err)
	}
	if len(scores) != 2 || scores[0] != 1 || scores[1] != 3 {
		t.Errorf("scores = %v", scores)
	}

	// 单条 Predict 走批量接口
	score, err := m.Predict(map[string]float64{"cf_rank": 7})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if score != 7 {
		t.Errorf("Predict() = %v, want 7", score)
	}
}

func TestRPCModel_ScoreCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"scores": []float64{0.5}})
	}))
	defer srv.Close()

	m := NewRPCModel("remote", srv.URL, 0)
	if _, err := m.PredictBatch([]map[string]float64{{}, {}}); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestRPCModel_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := NewRPCModel("remote", srv.URL, 0)
	if _, err := m.PredictBatch([]map[string]float64{{}}); err == nil {
		t.Fatal("expected error")
	}
}
