package utils

import "sync"

// ParallelMap 以最多 workers 个协程并发处理 input，结果顺序与输入一致。
// 输入不多于 1 个或 workers <= 1 时直接串行处理。
func ParallelMap[T any, R any](input []T, workers int, fn func(T) R) []R {
	results := make([]R, len(input))
	if len(input) == 0 {
		return results
	}
	if len(input) == 1 || workers <= 1 {
		for i, v := range input {
			results[i] = fn(v)
		}
		return results
	}
	if workers > len(input) {
		workers = len(input)
	}

	indexes := make(chan int, len(input))
	for i := range input {
		indexes <- i
	}
	close(indexes)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = fn(input[i])
			}
		}()
	}
	wg.Wait()
	return results
}
