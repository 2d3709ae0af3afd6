package repository

import (
	"github.com/alicebob/miniredis/v2"

	"github.com/sanketnighot/hookified/pkg/common"
	"github.com/sanketnighot/hookified/pkg/types"
)

// NewRedisClientForTest creates a Redis client backed by miniredis for testing
func NewRedisClientForTest() (*common.RedisClient, error) {
	s, err := miniredis.Run()
	if err != nil {
		return nil, err
	}

	rdb, err := common.NewRedisClient(types.RedisConfig{
		Addrs: []string{s.Addr()},
	})
	if err != nil {
		return nil, err
	}

	return rdb, nil
}
