package config

import "github.com/cockroachdb/errors"

var (
	// ErrKeyNotFound 配置键不存在
	ErrKeyNotFound = errors.New("config key not found")

	// ErrValidationFailed 配置验证失败
	ErrValidationFailed = errors.New("config validation failed")

	// ErrNilConfig 配置为 nil
	ErrNilConfig = errors.New("config cannot be nil")
)
