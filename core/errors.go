package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误分层（与服务行为对应）：
//   - INVALID_INPUT：请求级拒绝（负数 user_id、k < 1），算法执行前返回
//   - INVALID_ARTIFACT：工件完整性错误，启动加载时致命，服务拒绝上线
//   - NOT_FOUND：存储 key 不存在；数据缺口（某来源无候选、无向量、
//     无分区榜单）不走错误通道，由各组件按哨兵/跳过/回填规则消化
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "artifact", "service"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound        = "NOT_FOUND"         // 资源不存在
	ErrorCodeNotSupported    = "NOT_SUPPORTED"     // 操作不支持
	ErrorCodeUnavailable     = "UNAVAILABLE"       // 服务不可用
	ErrorCodeInvalidInput    = "INVALID_INPUT"     // 输入无效
	ErrorCodeInvalidArtifact = "INVALID_ARTIFACT"  // 工件损坏/形状不符
	ErrorCodeInternalError   = "INTERNAL_ERROR"    // 内部错误
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleArtifact = "artifact" // 工件模块
	ModuleModel    = "model"    // 模型模块
	ModuleService  = "service"  // 服务模块
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsInvalidInput 检查错误是否为请求级拒绝
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsInvalidArtifact 检查错误是否为工件完整性错误
func IsInvalidArtifact(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidArtifact
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}
