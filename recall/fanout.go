package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/pkg/utils"
)

// DefaultMaxPool 是候选池的最大规模。哨兵位次 1001 即"最大真实位次 + 1"，
// 两者必须联动（core.AbsentRank）。
const DefaultMaxPool = 1000

// Fanout 是一个 Recall Node：并发执行多个召回源，并按固定优先级合并成候选池。
//
// 合并规则（顺序即 Sources 的排列，约定 i2i > ALS > 热门 > 双塔）：
//   - 每个来源内的 1 起位次写入该来源的位次特征；未召回保持哨兵 1001
//   - 整体位次（overall_rank）= 候选在池中首次出现的 1 起序号，
//     由包含它的最高优先级来源及其位置决定（"最可信来源裁定"）
//   - 池的 key 集合是四个列表的并集，天然去重
//
// 并发只是性能优化：各来源读取只读工件表，结果先收齐再按来源顺序合并，
// 输出与串行执行完全一致（确定性）。
type Fanout struct {
	Sources []Source

	// Timeout 是每个召回源的超时时间（0 表示不限制）
	Timeout time.Duration

	// MaxPool 候选池上限，<= 0 时取 DefaultMaxPool
	MaxPool int
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 先并发收齐各来源的有序列表，results 下标与 Sources 对齐
	results := make([][]int64, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, src := range n.Sources {
		idx, s := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			ids, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 单个来源出错/超时按空列表处理，不中断其他来源
				return nil
			}
			results[idx] = ids
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return n.merge(rctx, results), nil
}

// merge 按来源优先级顺序合并，写入位次特征与来源标签。
func (n *Fanout) merge(rctx *core.RecommendContext, results [][]int64) []*core.Item {
	maxPool := n.MaxPool
	if maxPool <= 0 {
		maxPool = DefaultMaxPool
	}

	seen := make(map[int64]*core.Item, maxPool)
	pool := make([]*core.Item, 0, maxPool)

	for si, ids := range results {
		feat := n.Sources[si].RankFeature()
		srcName := n.Sources[si].Name()

		for pos, id := range ids {
			it, ok := seen[id]
			if !ok {
				if len(pool) >= maxPool {
					continue
				}
				it = core.NewItem(id)
				it.Features[core.FeatOverallRank] = float64(len(pool) + 1)
				seen[id] = it
				pool = append(pool, it)
			}

			// 同一来源列表内若有重复，以首次出现的位次为准
			if it.Features[feat] == core.AbsentRank {
				it.Features[feat] = float64(pos + 1)
			}
			it.PutLabel("recall_source", utils.Label{Value: srcName, Source: "recall"})
		}
	}

	return pool
}
