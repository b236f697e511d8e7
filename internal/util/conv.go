package util

import (
	"strconv"
)

// ParseIntDefault 把s解析为正整数，为空、格式错误或非正数时返回def
func ParseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
