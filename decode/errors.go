package decode

import "fmt"

// SizeError reports a payload or scale file whose decoded byte length does
// not match the length implied by the tensor shape and encoding. Exact
// equality is required; short or long payloads are never truncated or
// padded.
type SizeError struct {
	File     string
	Expected int64
	Actual   int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("decode: %s: expected %d bytes, got %d", e.File, e.Expected, e.Actual)
}

// EncodingError reports an unrecognized dtype/encoding combination in a
// variant descriptor.
type EncodingError struct {
	Key      string
	DType    string
	Encoding string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("decode: unrecognized variant %q (dtype %q, encoding %q)", e.Key, e.DType, e.Encoding)
}
