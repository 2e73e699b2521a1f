//go:build cfgpanic

//cfgpanic:gate openapi
package main

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
)

// ValidateSpec loads and validates an OpenAPI 3 document.
func ValidateSpec(ctx context.Context, data []byte) error {
	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		return err
	}
	return doc.Validate(ctx)
}

// Paths lists the paths of an OpenAPI 3 document.
func Paths(data []byte) ([]string, error) {
	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		return nil, err
	}
	return doc.Paths.InMatchingOrder(), nil
}
