package common

import "fmt"

var (
	// Gateway keys
	gatewayInitLock string = "gateway:init:%s:lock" // name

	// Hook keys
	hookSeen string = "hook:seen:%d" // hookId
)

var Keys = &redisKeys{}

type redisKeys struct{}

// Gateway keys
func (rk *redisKeys) GatewayInitLock(name string) string {
	return fmt.Sprintf(gatewayInitLock, name)
}

// Hook keys
func (rk *redisKeys) HookSeen(hookId uint) string {
	return fmt.Sprintf(hookSeen, hookId)
}
