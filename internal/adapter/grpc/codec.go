package grpc

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// decode copies a Struct payload into a JSON-tagged Go value
func decode(in *structpb.Struct, out any) error {
	if in == nil {
		in = &structpb.Struct{}
	}

	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, out)
}

// encode converts a JSON-tagged Go value into a Struct payload
func encode(v any) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	if v == nil {
		return out, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}

	return out, nil
}
