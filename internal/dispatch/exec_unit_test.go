package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutorTimeoutFallback(t *testing.T) {
	// 场景显式配置了超时就用场景的
	assert.Equal(t, 10*time.Second, executorTimeout(10*time.Second, time.Minute))
	// 场景未配置时退回全局默认值
	assert.Equal(t, time.Minute, executorTimeout(0, time.Minute))
	assert.Equal(t, time.Minute, executorTimeout(-time.Second, time.Minute))
}
