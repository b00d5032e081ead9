// Package wire binds the structural serializer's plain-map shape to
// concrete encodings: canonical CBOR for snapshots, where byte-identical
// output matters, and JSON for tooling and inspection.
package wire

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: canonical encode mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: decode mode: %v", err))
	}
}

// Marshal encodes a serialized instance as canonical CBOR. Equal snapshots
// encode to equal bytes.
func Marshal(data map[string]any) ([]byte, error) {
	b, err := encMode.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("wire: encode snapshot: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a canonical CBOR snapshot back into the plain-map
// shape, nested maps included.
func Unmarshal(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := decMode.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("wire: decode snapshot: %w", err)
	}
	return out, nil
}

// MarshalJSON encodes a snapshot as JSON for tooling.
func MarshalJSON(data map[string]any) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("wire: encode snapshot json: %w", err)
	}
	return b, nil
}

// MarshalIndentJSON encodes a snapshot as indented JSON for humans.
func MarshalIndentJSON(data map[string]any) ([]byte, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("wire: encode snapshot json: %w", err)
	}
	return b, nil
}

// UnmarshalJSON decodes a JSON snapshot.
func UnmarshalJSON(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("wire: decode snapshot json: %w", err)
	}
	return out, nil
}
