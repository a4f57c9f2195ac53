package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/storefront/catalog/internal/domain/catalog"
)

// encodePayload renders a payload column; absent payloads are stored as NULL
func encodePayload(p catalog.Payload) (*string, error) {
	raw, err := catalog.MarshalPayload(p)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	s := string(raw)
	return &s, nil
}

func decodePayload(column string, s *string) (catalog.Payload, error) {
	if s == nil {
		return nil, nil
	}
	p, err := catalog.ParsePayload([]byte(*s))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", column, err)
	}
	return p, nil
}

func encodeJSON(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

// decodeJSON decodes a column into out, keeping numbers as json.Number
func decodeJSON(column string, s *string, out any) error {
	if s == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(*s)))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}
