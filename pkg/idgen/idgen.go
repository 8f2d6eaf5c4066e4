// Package idgen 提供可注入的 ID 生成器，支持单调递增序列与随机 UUID 两种模式
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator ID 生成器接口。决策引擎与贷款账本通过注入该接口获得可控的 ID 序列
type Generator interface {
	// Next 生成带前缀的唯一 ID
	Next(prefix string) string
}

// Sequence 单调递增序列生成器，格式 PREFIX_N
type Sequence struct {
	counter atomic.Uint64
}

// NewSequence 创建序列生成器
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next 返回下一个序列 ID
func (s *Sequence) Next(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, s.counter.Add(1))
}

// Random UUID 随机生成器，格式 PREFIX_uuid
type Random struct{}

// NewRandom 创建随机生成器
func NewRandom() *Random {
	return &Random{}
}

// Next 返回随机 ID
func (r *Random) Next(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.New().String())
}
