package pusher

import (
	"fmt"
	"math/rand"
)

// NewSocketID 生成 Pusher 格式的 socket id，例如 "123456.7890123"
func NewSocketID() string {
	return fmt.Sprintf("%d.%d", rand.Intn(1_000_000_000)+1, rand.Intn(1_000_000_000)+1)
}
