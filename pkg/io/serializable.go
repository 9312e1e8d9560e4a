package io

// Serializable defines the binary encoding/decoding interface. Errors are
// returned via BinReader/BinWriter Err field. These functions must have safe
// behavior when the passed BinReader/BinWriter with Err is already set. Invocations
// to these functions tend to be nested, with this mechanism only the top-level
// caller should handle an error once and all the other code should just not
// panic while there is an error.
type Serializable interface {
	DecodeBinary(*BinReader)
	EncodeBinary(*BinWriter)
}

// GetVarSize returns the number of bytes a var-length integer takes.
func GetVarSize(value int) int {
	switch {
	case value < 0xFD:
		return 1 // byte
	case value <= 0xFFFF:
		return 3 // byte + uint16
	case value <= 0xFFFFFFFF:
		return 5 // byte + uint32
	default:
		return 9 // byte + uint64
	}
}
