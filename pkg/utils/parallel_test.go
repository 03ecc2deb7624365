package utils

import (
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParallelMap(t *testing.T) {
	// 测试空输入
	t.Run("empty input", func(t *testing.T) {
		var emptyInput []int
		result := ParallelMap(emptyInput, 4, func(i int) int {
			return i * 2
		})
		assert.Empty(t, result)
	})

	// 测试单元素输入 - 应该直接处理，不使用并发
	t.Run("single input", func(t *testing.T) {
		result := ParallelMap([]int{42}, 4, func(i int) int {
			return i * 2
		})
		assert.Equal(t, []int{84}, result)
	})

	// 测试多元素输入 - 确保顺序正确
	t.Run("multiple inputs with order", func(t *testing.T) {
		input := []int{1, 2, 3, 4, 5}
		result := ParallelMap(input, 3, func(i int) int {
			// 添加随机延迟，测试顺序保持
			time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
			return i * 2
		})
		assert.Equal(t, []int{2, 4, 6, 8, 10}, result)
	})

	// 测试并发上限
	t.Run("bounded concurrency", func(t *testing.T) {
		input := make([]int, 40)
		for i := range input {
			input[i] = i
		}

		var maxConcurrent, currentConcurrent int32
		ParallelMap(input, 4, func(i int) int {
			current := atomic.AddInt32(&currentConcurrent, 1)
			for {
				seen := atomic.LoadInt32(&maxConcurrent)
				if current <= seen || atomic.CompareAndSwapInt32(&maxConcurrent, seen, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&currentConcurrent, -1)
			return i
		})

		assert.LessOrEqual(t, maxConcurrent, int32(4))
		assert.GreaterOrEqual(t, maxConcurrent, int32(1))
	})

	// workers 非正数时串行处理
	t.Run("serial fallback", func(t *testing.T) {
		result := ParallelMap([]string{"a", "b"}, 0, func(s string) string {
			return s + s
		})
		assert.Equal(t, []string{"aa", "bb"}, result)
	})
}
