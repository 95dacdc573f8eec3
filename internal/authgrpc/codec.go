// Package authgrpc implements the gRPC control-plane collaborator of
// spec.md §6: Authenticate/Refresh/Logout RPCs minting JWT HS256 token
// pairs. No .proto toolchain ran to produce this package: the service
// descriptor below is hand-authored the way protoc-gen-go-grpc would
// emit it, and wire messages are carried through a JSON grpc codec
// (json-iterator, matching the rest of this module's wire encoding)
// instead of generated protobuf message types, since no protoc pass is
// available in this environment. The RPC shapes, service name, and
// method set match spec.md §6 exactly; only the serialization backend
// differs from a protobuf-generated service.
package authgrpc

import (
	jsoniter "github.com/json-iterator/go"
)

var codecJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonCodec implements google.golang.org/grpc/encoding.Codec, carrying
// plain Go structs (no proto.Message requirement) as JSON frames.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return codecJSON.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return codecJSON.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return "json" }
