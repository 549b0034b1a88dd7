package service

import (
	"context"
	"testing"

	"github.com/rushteam/recserve/artifact"
	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
)

// constModel 让所有候选同分，重排退化为 overall_rank 升序，
// 便于对输出顺序做精确断言。
func constModel() *model.GBDTModel {
	return &model.GBDTModel{
		ModelName: "gbdt",
		Objective: "binary",
		Trees:     [][]model.TreeNode{{{Leaf: true, Value: 0}}},
	}
}

// testBundle 构造一套覆盖冷暖两条链路的小型工件。
//
//	user 0: 暖（last click 10），有画像 {device 1, os 2, US}
//	user 1: 冷（无历史），无画像
func testBundle() *artifact.Bundle {
	cf := make([][]int64, 11)
	cf[10] = []int64{11, 12, 13}

	return &artifact.Bundle{
		LastClick: []int64{10, core.NoLastClick},
		Profiles: map[int64]core.UserContext{
			0: {Device: 1, OS: 2, Country: "US"},
		},
		CF:              cf,
		ALS:             [][]int64{{12, 14}},
		Neural:          [][]int64{{15}},
		PopList:         []int64{11, 30, 31, 32, 33},
		ByOS:            map[int][]int64{2: {40, 41}},
		ByDevice:        map[int][]int64{1: {42, 43}},
		ByOSCountry:     map[string][]int64{"2|US": {44, 45, 46}},
		ByDeviceCountry: map[string][]int64{"1|US": {47, 48, 49}},
		GroundTruth:     map[int64]int64{0: 11},
		Model:           constModel(),
	}
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := New(testBundle(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestRecommend_InvalidInput(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name string
		req  *Request
	}{
		{"nil request", nil},
		{"negative user_id", &Request{UserID: -1, K: 5}},
		{"zero k", &Request{UserID: 0, K: 0}},
		{"negative k", &Request{UserID: 0, K: -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Recommend(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if !core.IsInvalidInput(err) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestRecommend_WarmOrder(t *testing.T) {
	s := newTestService(t)

	res, err := s.Recommend(context.Background(), &Request{UserID: 0, K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// 同分模型下输出 = 候选池顺序：cf 11,12,13 → als 补 14 → 热门补 30...
	want := []int64{11, 12, 13, 14, 30}
	assertIDs(t, res.Recommendations, want)

	if res.UserType != UserTypeWarm || res.Algorithm != AlgorithmWarm {
		t.Errorf("UserType/Algorithm = %q/%q", res.UserType, res.Algorithm)
	}
	if res.GroundTruth == nil || *res.GroundTruth != 11 {
		t.Errorf("GroundTruth = %v, want 11", res.GroundTruth)
	}
	if res.Profile.Stored.Country != "US" || res.Profile.OverridesApplied {
		t.Errorf("Profile = %+v", res.Profile)
	}
}

func TestRecommend_WarmInvariantUnderOverrides(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	base, err := s.Recommend(ctx, &Request{UserID: 0, K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	overridden, err := s.Recommend(ctx, &Request{
		UserID: 0,
		K:      5,
		Env:    &core.ContextOverride{OS: intPtr(9), Country: strPtr("br")},
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// 暖链路不读环境：覆盖只影响回显的画像，不影响推荐
	assertIDs(t, overridden.Recommendations, base.Recommendations)
	if !overridden.Profile.OverridesApplied {
		t.Error("OverridesApplied = false, want true")
	}
	if overridden.Profile.Used.OS != 9 || overridden.Profile.Used.Country != "BR" {
		t.Errorf("Used = %+v", overridden.Profile.Used)
	}
	if overridden.Profile.Used.Device != 1 {
		t.Errorf("Device = %d, want stored value 1", overridden.Profile.Used.Device)
	}
	if overridden.Profile.Stored != base.Profile.Stored {
		t.Errorf("Stored changed: %+v", overridden.Profile.Stored)
	}
}

func TestRecommend_WarmKeepsLastClickInPool(t *testing.T) {
	// i2i 表偶尔把 key 物品带进近邻列表；默认 Pipeline 不剔除它，
	// 输出长度保持 min(k, 池大小)
	cf := make([][]int64, 2)
	cf[1] = []int64{2, 1, 3}

	b := testBundle()
	b.LastClick = []int64{1}
	b.CF = cf
	b.ALS = nil
	b.Neural = nil
	b.PopList = []int64{2, 3}

	s, err := New(b)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := s.Recommend(context.Background(), &Request{UserID: 0, K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	// 候选池恰好 3 个物品（含 last click 1），k=3 → 全部返回
	assertIDs(t, res.Recommendations, []int64{2, 1, 3})
}

func TestRecommend_OverridesAppliedEvenIfEqual(t *testing.T) {
	s := newTestService(t)

	// 覆盖值与存量值相同也算"声明了环境"
	res, err := s.Recommend(context.Background(), &Request{
		UserID: 0,
		K:      3,
		Env:    &core.ContextOverride{Device: intPtr(1)},
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !res.Profile.OverridesApplied {
		t.Error("OverridesApplied = false, want true")
	}
}

func TestRecommend_ColdBackfill(t *testing.T) {
	s := newTestService(t)

	// user 1 冷且无画像：四个分区都键控不到，全部由全局热门榜回填
	res, err := s.Recommend(context.Background(), &Request{UserID: 1, K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	assertIDs(t, res.Recommendations, []int64{11, 30, 31})
	if res.UserType != UserTypeCold || res.Algorithm != AlgorithmColdStart {
		t.Errorf("UserType/Algorithm = %q/%q", res.UserType, res.Algorithm)
	}
	if res.GroundTruth != nil {
		t.Errorf("GroundTruth = %v, want nil", res.GroundTruth)
	}
}

func TestRecommend_ColdContextSensitive(t *testing.T) {
	s := newTestService(t)

	res, err := s.Recommend(context.Background(), &Request{
		UserID: 1,
		K:      10,
		Env: &core.ContextOverride{
			Device:  intPtr(1),
			OS:      intPtr(2),
			Country: strPtr("us"), // 大小写不敏感，内部统一大写
		},
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// k=10 配额 2/2/3/3：by_os 2 + by_dev 2 + by_os_reg 3 + by_dev_reg 3
	want := []int64{40, 41, 42, 43, 44, 45, 46, 47, 48, 49}
	assertIDs(t, res.Recommendations, want)
}

func TestRecommend_OutOfRangeUserIsCold(t *testing.T) {
	s := newTestService(t)

	// user_id 非负但超出 last_click 表：冷用户，不是错误
	res, err := s.Recommend(context.Background(), &Request{UserID: 9999, K: 2})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.UserType != UserTypeCold {
		t.Errorf("UserType = %q, want cold", res.UserType)
	}
	if res.Profile.Stored != core.DefaultUserContext() {
		t.Errorf("Stored = %+v, want default", res.Profile.Stored)
	}
}

func TestRecommend_KClamp(t *testing.T) {
	s := newTestService(t, WithMaxK(3))

	res, err := s.Recommend(context.Background(), &Request{UserID: 0, K: 50})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(res.Recommendations) > 3 {
		t.Errorf("len = %d, want <= 3", len(res.Recommendations))
	}
}

func TestRecommend_UniqueIDs(t *testing.T) {
	s := newTestService(t)

	for _, userID := range []int64{0, 1, 9999} {
		res, err := s.Recommend(context.Background(), &Request{UserID: userID, K: 10})
		if err != nil {
			t.Fatalf("Recommend(%d) error = %v", userID, err)
		}
		if len(res.Recommendations) > 10 {
			t.Errorf("user %d: len = %d, want <= 10", userID, len(res.Recommendations))
		}
		seen := make(map[int64]struct{})
		for _, id := range res.Recommendations {
			if _, dup := seen[id]; dup {
				t.Errorf("user %d: duplicate id %d", userID, id)
			}
			seen[id] = struct{}{}
		}
	}
}

type fakeProfileSource struct {
	profiles map[int64]core.UserContext
}

func (s *fakeProfileSource) StoredProfile(_ context.Context, userID int64) (core.UserContext, bool, error) {
	p, ok := s.profiles[userID]
	return p, ok, nil
}

func TestRecommend_ProfileSourceFallback(t *testing.T) {
	src := &fakeProfileSource{profiles: map[int64]core.UserContext{
		1: {Device: 1, OS: 2, Country: "US"},
	}}
	s := newTestService(t, WithProfileSource(src))

	// 画像表缺 user 1，但在线来源有：冷链路按回源画像分区取数
	res, err := s.Recommend(context.Background(), &Request{UserID: 1, K: 4})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	assertIDs(t, res.Recommendations, []int64{40, 42, 44, 47})
	if res.Profile.OverridesApplied {
		t.Error("OverridesApplied = true, want false")
	}
	if res.Profile.Stored.Country != "US" {
		t.Errorf("Stored = %+v", res.Profile.Stored)
	}
}

func TestNew_RejectsInvalidBundle(t *testing.T) {
	b := testBundle()
	b.Model = nil

	if _, err := New(b); err == nil || !core.IsInvalidArtifact(err) {
		t.Errorf("New() error = %v, want INVALID_ARTIFACT", err)
	}
}

func TestReady(t *testing.T) {
	s := newTestService(t)
	if !s.Ready() {
		t.Error("Ready() = false, want true")
	}

	var nilSvc *Service
	if nilSvc.Ready() {
		t.Error("nil service should not be ready")
	}
}

func assertIDs(t *testing.T, got, want []int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
