package entry

import (
	"encoding/binary"
	"math"
)

// WriteU64 appends v to buf in little-endian form.
func WriteU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// WriteLenStr appends a u64 length prefix followed by s's bytes.
func WriteLenStr(buf []byte, s string) []byte {
	buf = WriteU64(buf, uint64(len(s)))
	return append(buf, s...)
}

// WriteF64 appends a little-endian IEEE-754 double.
func WriteF64(buf []byte, f float64) []byte {
	return WriteU64(buf, math.Float64bits(f))
}

// ReadU64 reads a little-endian u64 from the front of data, returning the
// remaining bytes. It fails with ErrMalformed on truncation.
func ReadU64(data []byte) (uint64, []byte, error) {
	if len(data) < 8 {
		return 0, nil, ErrMalformed
	}
	return binary.LittleEndian.Uint64(data[:8]), data[8:], nil
}

// ReadLenStr reads a u64-length-prefixed string from the front of data,
// returning the remaining bytes.
func ReadLenStr(data []byte) (string, []byte, error) {
	l, rest, err := ReadU64(data)
	if err != nil {
		return "", nil, err
	}
	if uint64(len(rest)) < l {
		return "", nil, ErrMalformed
	}
	return string(rest[:l]), rest[l:], nil
}

// ReadF64 reads a little-endian IEEE-754 double from the front of data.
func ReadF64(data []byte) (float64, []byte, error) {
	bits, rest, err := ReadU64(data)
	if err != nil {
		return 0, nil, err
	}
	return math.Float64frombits(bits), rest, nil
}
