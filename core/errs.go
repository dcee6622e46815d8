package core

import "errors"

var (
	ErrWatchExists       = errors.New("watch already exists")
	ErrWatchNotFound     = errors.New("watch not found")
	ErrInvalidContract   = errors.New("invalid contract address")
	ErrInvalidThresholds = errors.New("thresholds must satisfy 0 < low <= mid <= high")
)
