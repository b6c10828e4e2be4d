package utils

import "github.com/google/uuid"

// NewID 全局字符串主键
func NewID() string { return uuid.NewString() }
