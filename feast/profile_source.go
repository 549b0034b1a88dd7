package feast

import (
	"context"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pkg/conv"
)

// 画像特征的默认特征视图与字段名。
const (
	DefaultFeatureView = "user_env"
	featDevice         = "device"
	featOS             = "os"
	featCountry        = "country"
)

// ProfileSource 把 Feast 在线特征映射为用户环境画像，
// 实现 service.ProfileSource：静态画像表缺行时的可选回源。
//
// 注意：回源只发生在画像解析阶段（请求入口处一次查询），
// 候选生成/特征/重排的热路径仍然是纯内存查表。
type ProfileSource struct {
	Client Client

	// FeatureView 特征视图名，为空时取 DefaultFeatureView
	FeatureView string

	// EntityKey 实体 key 名，为空时取 "user_id"
	EntityKey string
}

// StoredProfile 查询用户的环境画像。
// Feast 无此用户/特征缺失 → (zero, false, nil)，调用方落回缺省画像。
func (s *ProfileSource) StoredProfile(ctx context.Context, userID int64) (core.UserContext, bool, error) {
	if s == nil || s.Client == nil {
		return core.UserContext{}, false, nil
	}

	view := s.FeatureView
	if view == "" {
		view = DefaultFeatureView
	}
	entityKey := s.EntityKey
	if entityKey == "" {
		entityKey = "user_id"
	}

	resp, err := s.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features: []string{
			view + ":" + featDevice,
			view + ":" + featOS,
			view + ":" + featCountry,
		},
		EntityRows: []map[string]any{
			{entityKey: userID},
		},
	})
	if err != nil {
		return core.UserContext{}, false, err
	}
	if len(resp.FeatureVectors) == 0 {
		return core.UserContext{}, false, nil
	}

	values := resp.FeatureVectors[0].Values
	profile := core.DefaultUserContext()
	found := false

	if v, ok := conv.ToInt64(values[view+":"+featDevice]); ok {
		profile.Device = int(v)
		found = true
	}
	if v, ok := conv.ToInt64(values[view+":"+featOS]); ok {
		profile.OS = int(v)
		found = true
	}
	if v, ok := values[view+":"+featCountry].(string); ok && v != "" {
		profile.Country = v
		found = true
	}

	return profile, found, nil
}
