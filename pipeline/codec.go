package pipeline

import (
	"encoding/gob"
	"io"
)

// Codec serializes cached stage outputs.
type Codec interface {
	Encode(w io.Writer, v any) error
	Decode(r io.Reader) (any, error)
}

// GobCodec stores values as gob-encoded interfaces. Basic types and slices
// of them work out of the box; custom types must be gob.Register'ed.
type GobCodec struct{}

func (GobCodec) Encode(w io.Writer, v any) error {
	return gob.NewEncoder(w).Encode(&v)
}

func (GobCodec) Decode(r io.Reader) (any, error) {
	var v any
	if err := gob.NewDecoder(r).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
