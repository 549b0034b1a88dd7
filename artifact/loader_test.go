package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/store"
)

const modelDump = `{
	"name": "reranker",
	"objective": "binary",
	"trees": [[{"leaf": true, "value": 0.0}]]
}`

// writeArtifacts 写出一套最小可用的工件目录。
func writeArtifacts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func minimalArtifacts() map[string]string {
	return map[string]string{
		NameLastClick:    `[5, -1, 3]`,
		NamePopList:      `[1, 2, 3]`,
		NameRerankerGBDT: modelDump,
	}
}

func TestLoadDir_Minimal(t *testing.T) {
	dir := writeArtifacts(t, minimalArtifacts())

	b, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(b.LastClick) != 3 || b.LastClick[1] != core.NoLastClick {
		t.Errorf("LastClick = %v", b.LastClick)
	}
	if len(b.PopList) != 3 {
		t.Errorf("PopList = %v", b.PopList)
	}
	if b.Model == nil || b.Model.Name() != "reranker" {
		t.Errorf("Model = %+v", b.Model)
	}
	// 可选工件全部缺失：对应表为空，不是错误
	if b.CF != nil || b.Profiles != nil || b.GroundTruth != nil {
		t.Errorf("optional artifacts should be empty: %+v", b)
	}
}

func TestLoadDir_Full(t *testing.T) {
	files := minimalArtifacts()
	files[NameCF] = `[[1,2],[3]]`
	files[NameALS] = `[[4]]`
	files[NameNeural] = `[[5]]`
	files[NameProfiles] = `{"0": {"device": 1, "os": 2, "country": "US"}}`
	files[NameTopLists] = `{
		"by_os": {"2": [10, 11]},
		"by_dev": {"1": [20]},
		"by_os_reg": {"2|US": [30]},
		"by_dev_reg": {"1|US": [40]}
	}`
	files[NameUserVecs] = `[[0.5, 0.5]]`
	files[NameItemVecs] = `[[1.0, 0.0], [0.0, 1.0]]`
	files[NameGroundTruth] = `{"0": 7}`

	b, err := LoadDir(writeArtifacts(t, files))
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	if p, ok := b.Profile(0); !ok || p.Country != "US" || p.Device != 1 {
		t.Errorf("Profile(0) = %+v, %v", p, ok)
	}
	if got, _ := b.TopByOS(context.Background(), 2); len(got) != 2 || got[0] != 10 {
		t.Errorf("TopByOS(2) = %v", got)
	}
	if got, _ := b.TopByOSCountry(context.Background(), 2, "us"); len(got) != 1 || got[0] != 30 {
		t.Errorf("TopByOSCountry(2, us) = %v", got)
	}
	if gt, ok := b.GroundTruthOf(0); !ok || gt != 7 {
		t.Errorf("GroundTruthOf(0) = %v, %v", gt, ok)
	}
	if v, ok := b.UserVector(context.Background(), 0); !ok || len(v) != 2 {
		t.Errorf("UserVector(0) = %v, %v", v, ok)
	}
}

func TestLoadDir_MissingRequired(t *testing.T) {
	for _, missing := range []string{NameLastClick, NamePopList, NameRerankerGBDT} {
		t.Run(missing, func(t *testing.T) {
			files := minimalArtifacts()
			delete(files, missing)

			_, err := LoadDir(writeArtifacts(t, files))
			if err == nil {
				t.Fatal("expected error")
			}
			if !core.IsInvalidArtifact(err) {
				t.Errorf("error = %v, want INVALID_ARTIFACT", err)
			}
		})
	}
}

func TestLoadDir_CorruptOptionalIsFatal(t *testing.T) {
	files := minimalArtifacts()
	files[NameCF] = `{not json`

	_, err := LoadDir(writeArtifacts(t, files))
	if err == nil {
		t.Fatal("expected error")
	}
	if !core.IsInvalidArtifact(err) {
		t.Errorf("error = %v, want INVALID_ARTIFACT", err)
	}
}

func TestLoadDir_RaggedEmbeddings(t *testing.T) {
	files := minimalArtifacts()
	files[NameUserVecs] = `[[0.5, 0.5], [1.0]]`

	_, err := LoadDir(writeArtifacts(t, files))
	if err == nil || !core.IsInvalidArtifact(err) {
		t.Errorf("error = %v, want INVALID_ARTIFACT", err)
	}
}

func TestLoadDir_BadProfileKey(t *testing.T) {
	files := minimalArtifacts()
	files[NameProfiles] = `{"abc": {"device": 1, "os": 1, "country": "US"}}`

	_, err := LoadDir(writeArtifacts(t, files))
	if err == nil || !core.IsInvalidArtifact(err) {
		t.Errorf("error = %v, want INVALID_ARTIFACT", err)
	}
}

func TestLoadFromStore(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()

	ctx := context.Background()
	for name, data := range minimalArtifacts() {
		if err := ms.Set(ctx, "artifact:"+name, []byte(data)); err != nil {
			t.Fatal(err)
		}
	}

	b, err := LoadFromStore(ctx, ms, "")
	if err != nil {
		t.Fatalf("LoadFromStore() error = %v", err)
	}
	if len(b.LastClick) != 3 || b.Model == nil {
		t.Errorf("bundle = %+v", b)
	}
}

func TestBundle_LastClickOf(t *testing.T) {
	b := &Bundle{LastClick: []int64{5, core.NoLastClick}}

	tests := []struct {
		userID int64
		want   int64
	}{
		{0, 5},
		{1, core.NoLastClick},
		{99, core.NoLastClick}, // 越界按无历史处理
		{-1, core.NoLastClick},
	}
	for _, tt := range tests {
		if got := b.LastClickOf(tt.userID); got != tt.want {
			t.Errorf("LastClickOf(%d) = %d, want %d", tt.userID, got, tt.want)
		}
	}
}

func TestBundle_StoreAdapters(t *testing.T) {
	b := &Bundle{
		CF:      [][]int64{{}, {10, 11, 12}},
		ALS:     [][]int64{{20}},
		PopList: []int64{1, 2, 3},
	}
	ctx := context.Background()

	if got, _ := b.CFStore().SimilarItems(ctx, 1, 2); len(got) != 2 || got[0] != 10 {
		t.Errorf("SimilarItems(1, 2) = %v", got)
	}
	// 越界返回空，不报错
	if got, _ := b.CFStore().SimilarItems(ctx, 99, 5); len(got) != 0 {
		t.Errorf("SimilarItems(99) = %v", got)
	}
	if got, _ := b.ALSStore().TopItemsForUser(ctx, 0, 0); len(got) != 1 {
		t.Errorf("TopItemsForUser(0) = %v", got)
	}
	if got, _ := b.PopStore().TopItems(ctx, 2); len(got) != 2 {
		t.Errorf("TopItems(2) = %v", got)
	}
	if got, _ := b.PopStore().TopItems(ctx, 0); len(got) != 3 {
		t.Errorf("TopItems(0) = %v", got)
	}
}
