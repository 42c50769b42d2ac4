package util

import (
	"github.com/njenga/hifadhi/storage/disk"
	"github.com/vmihailenco/msgpack"
)

// ToPageBytes marshals obj and pads the result to a full page image.
func ToPageBytes[T any](obj T) ([]byte, error) {
	res := make([]byte, disk.PAGE_SIZE)

	data, err := msgpack.Marshal(obj)
	if err != nil {
		return nil, err
	}
	copy(res, data)

	return res, nil
}

func ToStruct[T any](data []byte) (T, error) {
	var res T

	if err := msgpack.Unmarshal(data, &res); err != nil {
		return res, err
	}

	return res, nil
}

func Encode[T any](obj T) ([]byte, error) {
	return msgpack.Marshal(obj)
}
