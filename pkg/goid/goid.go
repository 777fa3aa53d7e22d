// Package goid 读取当前 goroutine ID，仅用于日志字段
package goid

import "runtime"

const prefix = len("goroutine ")

// GetGID 解析 runtime.Stack 首行 "goroutine 123 [running]:"，失败时返回 0
func GetGID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	var id uint64
	for i := prefix; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
