// Package service 是推荐服务的编排层：请求校验、画像解析、冷暖分流，
// 冷链路走上下文热门混合，暖链路走完整 Pipeline。
//
// 算法细节全部下沉到 recall / coldstart / feature / rank / rerank 各包，
// 这里只做装配与分流，不实现任何排序逻辑。
package service

import (
	"context"
	"strings"

	"github.com/rushteam/recserve/artifact"
	"github.com/rushteam/recserve/coldstart"
	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/feature"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/rank"
	"github.com/rushteam/recserve/recall"
	"github.com/rushteam/recserve/rerank"
)

// DefaultMaxK 是单次请求可请求的最大条数。
const DefaultMaxK = 100

// 用户类型与算法标识（响应中回显，便于排查分流）。
const (
	UserTypeCold = "cold"
	UserTypeWarm = "warm"

	AlgorithmColdStart = "context_popularity"
	AlgorithmWarm      = "multi_source_gbdt"
)

// ProfileSource 是静态画像表之外的可选在线画像来源（如 Feast）。
// 返回 (profile, found, err)；found 为 false 时调用方落回缺省画像。
type ProfileSource interface {
	StoredProfile(ctx context.Context, userID int64) (core.UserContext, bool, error)
}

// Service 是进程级的推荐服务实例。
// Bundle 加载后只读，Service 可被并发请求无锁共享。
type Service struct {
	bundle   *artifact.Bundle
	blender  *coldstart.ContextPopularity
	pipeline *pipeline.Pipeline
	profiles ProfileSource
	maxK     int
}

// Option 是 Service 的配置选项。
type Option func(*Service)

// WithPipeline 替换默认的暖用户 Pipeline（例如从 YAML 配置构建）。
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(s *Service) { s.pipeline = p }
}

// WithProfileSource 启用在线画像回源（静态画像表缺行时查询）。
func WithProfileSource(src ProfileSource) Option {
	return func(s *Service) { s.profiles = src }
}

// WithMaxK 调整单次请求的条数上限。
func WithMaxK(maxK int) Option {
	return func(s *Service) {
		if maxK > 0 {
			s.maxK = maxK
		}
	}
}

// New 用工件集合装配推荐服务。
// 工件完整性错误在此处致命返回，服务不会带着坏数据上线。
func New(b *artifact.Bundle, opts ...Option) (*Service, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		bundle: b,
		blender: &coldstart.ContextPopularity{
			Store:  b,
			Global: b.PopStore(),
		},
		pipeline: DefaultPipeline(b),
		maxK:     DefaultMaxK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DefaultPipeline 构建标准的暖用户 Pipeline：
// 四路召回并发合并 → 补 emb_sim → GBDT 重排 → 截断 k。
//
// 默认不挂任何过滤器：候选池里的每个物品（包括 last click 本身，
// 若 i2i 表把它带了进来）都参与重排，输出长度保持 min(k, 池大小)。
// 需要剔除类策略时经 Pipeline 配置挂载 filter.* 节点。
func DefaultPipeline(b *artifact.Bundle) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.ItemCF{Store: b.CFStore()},
					&recall.ALS{Store: b.ALSStore()},
					&recall.Hot{Store: b.PopStore()},
					&recall.TwoTower{Store: b.NeuralStore()},
				},
			},
			&feature.EmbSimNode{Store: b},
			&rank.GBDTNode{Model: b.Model},
			&rerank.TopN{},
		},
	}
}

// Request 是单次推荐请求。
type Request struct {
	UserID int64
	K      int

	// Env 是可选的环境覆盖（字段级合并，nil 表示完全沿用存量画像）
	Env *core.ContextOverride
}

// Profile 是响应中回显的画像信息。
type Profile struct {
	Stored           core.UserContext `json:"stored"`
	Used             core.UserContext `json:"used"`
	OverridesApplied bool             `json:"overrides_applied"`
}

// Result 是单次推荐的结果。
type Result struct {
	// Recommendations 是降序排好的物品 ID，长度 <= k，ID 不重复
	Recommendations []int64

	// GroundTruth 是评估用真实点击（工件缺失或无此用户时为 nil）
	GroundTruth *int64

	Profile Profile

	// UserType / Algorithm 记录本次请求的分流结果
	UserType  string
	Algorithm string
}

// Recommend 处理一次推荐请求。
//
// 错误语义：
//   - user_id < 0 或 k < 1 → INVALID_INPUT（算法执行前拒绝）
//   - k 超出上限 → 静默收敛到上限（不是错误）
//   - user_id 为非负但越界 → 冷启动用户（数据缺口，不是错误）
func (s *Service) Recommend(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"service: request is nil")
	}
	if req.UserID < 0 {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"service: user_id must be non-negative")
	}
	if req.K < 1 {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"service: k must be at least 1")
	}

	k := req.K
	if k > s.maxK {
		k = s.maxK
	}

	stored, used, applied := s.resolve(ctx, req.UserID, req.Env)

	res := &Result{
		Profile: Profile{
			Stored:           stored,
			Used:             used,
			OverridesApplied: applied,
		},
	}
	if gt, ok := s.bundle.GroundTruthOf(req.UserID); ok {
		res.GroundTruth = &gt
	}

	lastClick := s.bundle.LastClickOf(req.UserID)

	if lastClick == core.NoLastClick {
		// 冷链路：环境敏感，环境覆盖会改变输出
		ids, err := s.blender.Blend(ctx, used, k)
		if err != nil {
			return nil, err
		}
		res.Recommendations = ids
		res.UserType = UserTypeCold
		res.Algorithm = AlgorithmColdStart
		return res, nil
	}

	// 暖链路：只依赖 user_id 与 last_click，环境覆盖不影响输出
	rctx := &core.RecommendContext{
		UserID:           req.UserID,
		K:                k,
		LastClick:        lastClick,
		Stored:           stored,
		Used:             used,
		OverridesApplied: applied,
	}

	items, err := s.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		ids = append(ids, it.ID)
	}
	res.Recommendations = ids
	res.UserType = UserTypeWarm
	res.Algorithm = AlgorithmWarm
	return res, nil
}

// resolve 解析画像：存量（画像表 → 可选在线回源 → 缺省）与覆盖字段级合并。
//
// overridesApplied 的约定：请求显式提供了至少一个覆盖字段即为 true，
// 即使提供的值与存量值相同（"客户端声明了环境"与"环境被改变"是两回事，
// 前者才是上游关心的信号）。
func (s *Service) resolve(
	ctx context.Context,
	userID int64,
	override *core.ContextOverride,
) (stored, used core.UserContext, applied bool) {
	stored, ok := s.bundle.Profile(userID)
	if !ok && s.profiles != nil {
		if p, found, err := s.profiles.StoredProfile(ctx, userID); err == nil && found {
			stored, ok = p, true
		}
	}
	if !ok {
		stored = core.DefaultUserContext()
	}

	used = stored
	if override != nil {
		if override.Device != nil {
			used.Device = *override.Device
			applied = true
		}
		if override.OS != nil {
			used.OS = *override.OS
			applied = true
		}
		if override.Country != nil {
			used.Country = strings.ToUpper(*override.Country)
			applied = true
		}
	}
	return stored, used, applied
}

// Ready 报告服务是否可以接流：工件校验通过且 Pipeline 就绪。
func (s *Service) Ready() bool {
	return s != nil && s.bundle != nil && s.bundle.Validate() == nil && s.pipeline != nil
}

// MaxK 返回单次请求的条数上限。
func (s *Service) MaxK() int { return s.maxK }
