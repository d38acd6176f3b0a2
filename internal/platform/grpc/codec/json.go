// Package codec registers the JSON wire codec used by the ledger service.
//
// Messages travel as JSON documents over gRPC framing with the content
// subtype "json" (content-type application/grpc+json). Protobuf values are
// encoded with protojson; plain Go structs with encoding/json.
package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// Name is the registered codec name and content subtype.
const Name = "json"

var (
	marshalOptions   = protojson.MarshalOptions{UseProtoNames: true}
	unmarshalOptions = protojson.UnmarshalOptions{DiscardUnknown: true}
)

func init() {
	encoding.RegisterCodec(JSON{})
}

// JSON implements encoding.Codec.
type JSON struct{}

// Marshal encodes v as JSON.
func (JSON) Marshal(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return marshalOptions.Marshal(msg)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json message: %w", err)
	}
	return data, nil
}

// Unmarshal decodes JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error {
	if msg, ok := v.(proto.Message); ok {
		return unmarshalOptions.Unmarshal(data, msg)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal json message: %w", err)
	}
	return nil
}

// Name returns the codec name.
func (JSON) Name() string { return Name }

// CallOption selects the JSON codec for a client call.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(Name)
}
