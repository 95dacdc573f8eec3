package wire

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v5"
)

// json mirrors the teacher's gateway/consts.go aliasing of jsoniter to
// the stdlib-compatible config.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Tag byte values per spec.md §6: payload[0] = 0x00..0x7F selects JSON,
// 0x80..0xFF selects the binary (msgpack) form.
const (
	tagJSON    byte = 0x01
	tagMsgpack byte = 0x80
)

// Encode serializes env using the binary form when binary is true,
// otherwise JSON, prefixing the spec's magic tag byte.
func Encode(env *Envelope, binary bool) ([]byte, error) {
	if binary {
		body, err := msgpack.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("wire: msgpack encode: %w", err)
		}
		return append([]byte{tagMsgpack}, body...), nil
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("wire: json encode: %w", err)
	}
	return append([]byte{tagJSON}, body...), nil
}

// Decode parses a tagged payload (as delivered by the TCP/UDP framing
// layer) back into an Envelope.
func Decode(payload []byte) (*Envelope, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("wire: empty payload")
	}

	tag := payload[0]
	body := payload[1:]

	env := &Envelope{}
	var err error
	if tag >= 0x80 {
		err = msgpack.Unmarshal(body, env)
	} else {
		err = json.Unmarshal(body, env)
	}
	if err != nil {
		return nil, fmt.Errorf("wire: decode: %w", err)
	}
	return env, nil
}
