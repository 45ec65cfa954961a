package utils

import (
	"github.com/momentum-xyz/mapconfig/internal/logger"
)

var log = logger.L()

func FromAny[V any](val any, defaultValue V) V {
	v, ok := val.(V)
	if ok {
		return v
	}
	return defaultValue
}

func FromAnyMap[K comparable, V any](amap map[K]any, key K, defaultValue V) V {
	if val, ok := amap[key]; ok {
		return FromAny(val, defaultValue)
	}
	return defaultValue
}
