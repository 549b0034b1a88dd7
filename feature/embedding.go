package feature

import "context"

// EmbeddingStore 是双塔嵌入矩阵的存储接口。
// 向量在离线侧已做 L2 归一化，在线只做点积，不再归一化。
type EmbeddingStore interface {
	// UserVector 获取用户嵌入向量；用户越界/缺失返回 (nil, false)。
	UserVector(ctx context.Context, userID int64) ([]float64, bool)

	// ItemVector 获取物品嵌入向量；物品越界/缺失返回 (nil, false)。
	ItemVector(ctx context.Context, itemID int64) ([]float64, bool)
}

// Dot 计算两个向量的点积。维度不一致时按较短者截断
// （工件校验会在加载期拒绝维度不一致的矩阵，这里只是兜底）。
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
