package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

// Protobuf encodes proto messages deterministically so replicas that share a
// provider write identical bytes for identical results. Unknown fields are
// dropped on decode; documents written by a newer schema still load.
type Protobuf[T proto.Message] struct {
	ctor func() T
	mo   proto.MarshalOptions
	uo   proto.UnmarshalOptions
}

// NewProtobuf returns a codec for T. ctor must return a fresh message,
// e.g. func() *pb.Profile { return &pb.Profile{} }.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{
		ctor: ctor,
		mo:   proto.MarshalOptions{Deterministic: true},
		uo:   proto.UnmarshalOptions{DiscardUnknown: true},
	}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return c.mo.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.ctor == nil {
		var zero T
		return zero, errors.New("codec: protobuf constructor is nil")
	}
	m := c.ctor()
	if err := c.uo.Unmarshal(b, m); err != nil {
		var zero T
		return zero, err
	}
	return m, nil
}
