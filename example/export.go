//go:build cfgpanic

package main

import (
	"strconv"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// JobToJSON encodes the job in the protobuf JSON mapping.
//
//cfgpanic:gate protojson
//cfgpanic:return "string, error"
func JobToJSON(job Job) (string, error) {
	s, err := structpb.NewStruct(map[string]any{
		"id":     strconv.FormatInt(job.ID, 10),
		"status": job.Status,
	})
	if err != nil {
		return "", err
	}
	b, err := protojson.Marshal(s)
	return string(b), err
}
