package core

import "github.com/rushteam/recserve/pkg/utils"

// NoLastClick 是"无交互历史"的哨兵：last_click 表中该用户的值为 -1。
// 用户越界或取到该哨兵均判定为冷启动用户，不是错误。
const NoLastClick int64 = -1

// UserContext 是用户的环境三元组（设备分组 / 操作系统 / 国家码）。
// 请求内解析完成后不再变更；-1 / 空串表示未知维度。
type UserContext struct {
	Device  int    `json:"device" yaml:"device"`
	OS      int    `json:"os" yaml:"os"`
	Country string `json:"country" yaml:"country"`
}

// DefaultUserContext 返回无画像用户的缺省环境。
// 冷启动用户通常没有任何画像，缺省环境是合法状态而非错误。
func DefaultUserContext() UserContext {
	return UserContext{Device: -1, OS: -1, Country: ""}
}

// ContextOverride 是请求级的环境覆盖，字段级合并：
// 指针为 nil 表示未提供，沿用存量画像对应字段；非 nil 即覆盖。
type ContextOverride struct {
	Device  *int    `json:"device,omitempty" yaml:"device,omitempty"`
	OS      *int    `json:"os,omitempty" yaml:"os,omitempty"`
	Country *string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Empty 判断覆盖对象是否一个字段都没提供。
func (o *ContextOverride) Empty() bool {
	return o == nil || (o.Device == nil && o.OS == nil && o.Country == nil)
}

// RecommendContext 承载单次请求的用户/环境/实时信息，贯穿整个 Pipeline 透传。
// 请求结束即丢弃，不跨请求保留任何状态。
type RecommendContext struct {
	UserID    int64
	K         int   // 期望返回条数
	LastClick int64 // 最近一次点击的物品 ID；NoLastClick 表示冷用户

	// Stored 是画像表中的存量环境，Used 是覆盖合并后的生效环境。
	// 暖用户链路不读环境；冷启动链路只读 Used。
	Stored UserContext
	Used   UserContext

	// OverridesApplied 为 true 当且仅当请求显式提供了至少一个覆盖字段
	// （与存量值相同也算提供，约定见 service 包）。
	OverridesApplied bool

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
