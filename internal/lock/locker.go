package lock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotAcquired 锁被其他实例持有，本次调度跳过
var ErrNotAcquired = errors.New("lock not acquired")

// Locker 分布式锁。
// 同名定时任务在多个服务节点间互斥；锁至少持有 atLeast，
// 最迟 atMost 后释放（fn 的执行上下文以 atMost 为超时）。
type Locker interface {
	WithLock(ctx context.Context, name string, atMost, atLeast time.Duration, fn func(ctx context.Context) error) error
}

// ParseDuration 解析 PT1M / PT20S 这类 ISO-8601 时间段
func ParseDuration(s string) (time.Duration, error) {
	if !strings.HasPrefix(s, "PT") {
		return 0, fmt.Errorf("invalid ISO-8601 duration: %s", s)
	}

	var total time.Duration
	num := ""
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9' || r == '.':
			num += string(r)
		case r == 'H' || r == 'M' || r == 'S':
			if num == "" {
				return 0, fmt.Errorf("invalid ISO-8601 duration: %s", s)
			}
			v, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid ISO-8601 duration: %s", s)
			}
			switch r {
			case 'H':
				total += time.Duration(v * float64(time.Hour))
			case 'M':
				total += time.Duration(v * float64(time.Minute))
			case 'S':
				total += time.Duration(v * float64(time.Second))
			}
			num = ""
		default:
			return 0, fmt.Errorf("invalid ISO-8601 duration: %s", s)
		}
	}
	if num != "" {
		return 0, fmt.Errorf("invalid ISO-8601 duration: %s", s)
	}
	return total, nil
}

// holdAtLeast fn 提前完成时补足最短持有时间
func holdAtLeast(ctx context.Context, acquiredAt time.Time, atLeast time.Duration) {
	remaining := atLeast - time.Since(acquiredAt)
	if remaining <= 0 {
		return
	}
	select {
	case <-time.After(remaining):
	case <-ctx.Done():
	}
}
