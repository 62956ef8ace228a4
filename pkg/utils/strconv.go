package utils

import "strconv"

// AtoiDefault 解析失败回退默认值
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
