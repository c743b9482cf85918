package wire

import "math"

// PutFloat32 appends a 4-byte IEEE-754 little-endian float.
func PutFloat32(buf []byte, v float32) []byte {
	return PutFixed4(buf, math.Float32bits(v))
}

// ReadFloat32 reads a 4-byte IEEE-754 little-endian float at pos.
func ReadFloat32(buf []byte, pos int) (float32, int, error) {
	bits, np, err := ReadFixed4(buf, pos)
	if err != nil {
		return 0, pos, err
	}
	return math.Float32frombits(bits), np, nil
}

// PutFloat64 appends an 8-byte IEEE-754 little-endian float.
func PutFloat64(buf []byte, v float64) []byte {
	return PutFixed8(buf, math.Float64bits(v))
}

// ReadFloat64 reads an 8-byte IEEE-754 little-endian float at pos.
func ReadFloat64(buf []byte, pos int) (float64, int, error) {
	bits, np, err := ReadFixed8(buf, pos)
	if err != nil {
		return 0, pos, err
	}
	return math.Float64frombits(bits), np, nil
}
