// Package feast 提供 Feast Feature Store 的客户端接入，
// 作为静态画像表之外的可选在线画像来源。
package feast

import (
	"context"
	"time"
)

// Client 是 Feast Feature Store 的客户端接口（遵循 DDD 原则，高内聚低耦合）。
//
// Feast 是一个开源的 Feature Store，提供：
//   - 在线特征存储（Online Store）：用于实时预测
//   - Feature Server：提供特征服务
//
// recserve 只消费在线特征：当静态画像表缺行时，
// 画像解析可以回源 Feast 查询用户的 device/os/country 特征。
type Client interface {
	// GetOnlineFeatures 获取在线特征（用于实时预测）
	//
	// 参数：
	//   - Features: 特征名称列表，例如 ["user_env:device", "user_env:os"]
	//   - EntityRows: 实体行，例如 [{"user_id": 1001}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭连接
	Close() error
}

// GetOnlineFeaturesRequest 是在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表（"feature_view:feature" 格式）
	Features []string

	// EntityRows 实体行
	EntityRows []map[string]any

	// Project 项目名称（为空时使用客户端默认项目）
	Project string
}

// FeatureVector 是单个实体行的特征向量。
type FeatureVector struct {
	// Values 特征值，key 为特征名称
	Values map[string]any

	// EntityRow 对应的实体行
	EntityRow map[string]any
}

// GetOnlineFeaturesResponse 是在线特征响应。
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// ClientConfig 是客户端配置。
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
}

// ClientOption 是客户端配置选项。
type ClientOption func(*ClientConfig)

// WithTimeout 设置请求超时。
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}
