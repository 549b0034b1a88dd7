package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
)

// 工件名。目录模式下即文件名（加 .json 后缀）；
// Store 模式下即 key 的最后一段（{prefix}:{name}）。
const (
	NameLastClick    = "last_click"
	NameProfiles     = "user_profiles"
	NameCF           = "cf_i2i"
	NameALS          = "als_topk"
	NameNeural       = "tt_topk"
	NamePopList      = "pop_list"
	NameTopLists     = "top_lists"
	NameUserVecs     = "user_vec"
	NameItemVecs     = "item_vec"
	NameGroundTruth  = "ground_truth"
	NameRerankerGBDT = "reranker"
)

// rawTopLists 是 top_lists 工件的线格式：
// 单维分区 key 为十进制数字，区域分区 key 为 "dim|COUNTRY"。
type rawTopLists struct {
	ByOS            map[string][]int64 `json:"by_os"`
	ByDevice        map[string][]int64 `json:"by_dev"`
	ByOSCountry     map[string][]int64 `json:"by_os_reg"`
	ByDeviceCountry map[string][]int64 `json:"by_dev_reg"`
}

// LoadDir 从目录加载全部工件并校验。
// 必备：last_click / pop_list / reranker。
// 可选：画像、分区榜单、候选表、嵌入、ground truth —— 缺失时对应
// 组件按数据缺口规则降级（空候选 / 相似度 0 / 跳过分区），服务照常上线。
func LoadDir(dir string) (*Bundle, error) {
	read := func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name+".json"))
	}
	exists := func(err error) bool {
		return !errors.Is(err, fs.ErrNotExist)
	}
	return load(read, exists)
}

// LoadFromStore 从 core.Store 加载全部工件（key 形如 {prefix}:{name}）。
// 离线训练任务把工件以 JSON 块写入 Redis，服务启动时一次性读出；
// 加载完成后不再访问 Store，热路径零 I/O。
func LoadFromStore(ctx context.Context, s core.Store, prefix string) (*Bundle, error) {
	if prefix == "" {
		prefix = "artifact"
	}
	read := func(name string) ([]byte, error) {
		return s.Get(ctx, prefix+":"+name)
	}
	exists := func(err error) bool {
		return !core.IsStoreNotFound(err)
	}
	return load(read, exists)
}

func load(read func(string) ([]byte, error), exists func(error) bool) (*Bundle, error) {
	b := &Bundle{}

	// required 解码失败或缺失即完整性错误；optional 缺失静默跳过，
	// 但存在却解码失败同样致命（损坏的工件比缺失的工件更危险）。
	required := func(name string, out any) error {
		data, err := read(name)
		if err != nil {
			return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
				"artifact: load "+name+": "+err.Error())
		}
		if err := json.Unmarshal(data, out); err != nil {
			return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
				"artifact: parse "+name+": "+err.Error())
		}
		return nil
	}
	optional := func(name string, out any) error {
		data, err := read(name)
		if err != nil {
			if exists(err) {
				return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
					"artifact: load "+name+": "+err.Error())
			}
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
				"artifact: parse "+name+": "+err.Error())
		}
		return nil
	}

	if err := required(NameLastClick, &b.LastClick); err != nil {
		return nil, err
	}
	if err := required(NamePopList, &b.PopList); err != nil {
		return nil, err
	}

	if err := optional(NameCF, &b.CF); err != nil {
		return nil, err
	}
	if err := optional(NameALS, &b.ALS); err != nil {
		return nil, err
	}
	if err := optional(NameNeural, &b.Neural); err != nil {
		return nil, err
	}
	if err := optional(NameUserVecs, &b.UserVecs); err != nil {
		return nil, err
	}
	if err := optional(NameItemVecs, &b.ItemVecs); err != nil {
		return nil, err
	}

	var profiles map[string]core.UserContext
	if err := optional(NameProfiles, &profiles); err != nil {
		return nil, err
	}
	if profiles != nil {
		b.Profiles = make(map[int64]core.UserContext, len(profiles))
		for k, v := range profiles {
			id, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
					"artifact: user_profiles key is not an integer: "+k)
			}
			b.Profiles[id] = v
		}
	}

	var top rawTopLists
	if err := optional(NameTopLists, &top); err != nil {
		return nil, err
	}
	b.ByOSCountry = top.ByOSCountry
	b.ByDeviceCountry = top.ByDeviceCountry
	if b.ByOS, _ = intKeyed(top.ByOS); top.ByOS != nil && b.ByOS == nil {
		return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
			"artifact: top_lists.by_os key is not an integer")
	}
	if b.ByDevice, _ = intKeyed(top.ByDevice); top.ByDevice != nil && b.ByDevice == nil {
		return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
			"artifact: top_lists.by_dev key is not an integer")
	}

	var truth map[string]int64
	if err := optional(NameGroundTruth, &truth); err != nil {
		return nil, err
	}
	if truth != nil {
		b.GroundTruth = make(map[int64]int64, len(truth))
		for k, v := range truth {
			id, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
					"artifact: ground_truth key is not an integer: "+k)
			}
			b.GroundTruth[id] = v
		}
	}

	mdlData, err := read(NameRerankerGBDT)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
			"artifact: load "+NameRerankerGBDT+": "+err.Error())
	}
	mdl, err := model.ParseGBDTModel(mdlData)
	if err != nil {
		return nil, err
	}
	b.Model = mdl

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// intKeyed 把十进制字符串键的 map 转为整数键；任一 key 非法返回 nil。
func intKeyed(in map[string][]int64) (map[int][]int64, bool) {
	if in == nil {
		return nil, true
	}
	out := make(map[int][]int64, len(in))
	for k, v := range in {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, false
		}
		out[n] = v
	}
	return out, true
}
