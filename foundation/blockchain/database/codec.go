package database

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// codecVersion is written into every encoded column. Bump it when the shape
// of Input, Output or Transaction changes and teach decodeList the old one.
const codecVersion = 1

// ErrCodecVersion is returned when an encoded column was written by an
// unknown codec version.
var ErrCodecVersion = errors.New("unsupported codec version")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope wraps a sequence of nested entities with the codec version.
type envelope[T any] struct {
	Version int `json:"v"`
	Items   []T `json:"items"`
}

// encodeList serializes a nested entity sequence for an encoded column.
func encodeList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}

	data, err := json.Marshal(envelope[T]{Version: codecVersion, Items: items})
	if err != nil {
		return nil, fmt.Errorf("encoding %d items: %w", len(items), err)
	}

	return data, nil
}

// decodeList reverses encodeList.
func decodeList[T any](data []byte) ([]T, error) {
	if len(data) == 0 {
		return []T{}, nil
	}

	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}

	if env.Version != codecVersion {
		return nil, fmt.Errorf("version %d: %w", env.Version, ErrCodecVersion)
	}

	if env.Items == nil {
		env.Items = []T{}
	}

	return env.Items, nil
}
