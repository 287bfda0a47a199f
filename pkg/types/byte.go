package types

// Byte is a byte count or byte offset within the image.
type Byte uint64

// ConstError is an error that can be declared as a constant.
type ConstError string

func (err ConstError) Error() string { return string(err) }
