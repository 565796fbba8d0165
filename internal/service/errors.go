package service

import "errors"

// 业务错误分类，handler 层据此映射 HTTP 状态码。
// 单个操作要么完整成功要么不留半截状态。
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyResolved = errors.New("already resolved")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrDuplicate       = errors.New("duplicate")
	ErrValidation      = errors.New("validation failed")
	ErrDependency      = errors.New("dependency failure")
)
