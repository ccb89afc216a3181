package engine

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// IDGen 成交 ID 生成器，可注入以便测试时生成确定性 ID。
type IDGen interface {
	Next() string
}

// RandomID 默认实现，128 位随机十六进制。
type RandomID struct{}

func (RandomID) Next() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 失败说明系统熵源不可用，属于致命环境问题
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// SeqID 顺序 ID，单测与回放场景使用。
type SeqID struct {
	Prefix string

	mu sync.Mutex
	n  uint64
}

func (s *SeqID) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%d", s.Prefix, s.n)
}
