package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrLoaderFailed matches every *LoaderError.
	ErrLoaderFailed = errors.New("cache: loader failed")
	// ErrLockUnavailable is returned by the mutex strategy once its attempt
	// cap is spent without reading a value or winning the rebuild lock.
	ErrLockUnavailable = errors.New("cache: rebuild lock unavailable")
	// ErrDeserialization marks a stored entry that could not be decoded.
	// Reads treat it as a miss; it only surfaces from decode helpers.
	ErrDeserialization = errors.New("cache: deserialization failed")
)

// LoaderError wraps a failure of the source-of-truth loader.
type LoaderError struct {
	Key string
	Err error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("cache: loader failed for %s: %v", e.Key, e.Err)
}

func (e *LoaderError) Unwrap() error { return e.Err }

func (e *LoaderError) Is(target error) bool { return target == ErrLoaderFailed }
