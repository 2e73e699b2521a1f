// Command cfgpanicexample exercises optional capabilities. Generate the gated
// files first:
//
//	go run github.com/sublee/cfgpanic/cmd/cfgpanic
//
// Then try it with and without build tags:
//
//	go run .
//	go run -tags=http,protojson,openapi .
package main

import (
	"context"
	"fmt"

	"github.com/sublee/cfgpanic/pkg/cfgpanicerrors"
)

const spec = `
openapi: 3.0.0
info:
  title: Jobs
  version: 1.0.0
paths:
  /jobs:
    get:
      responses:
        "200":
          description: OK
`

func try(feature string, f func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		u, ok := cfgpanicerrors.Parse(r)
		if !ok {
			panic(r)
		}
		fmt.Printf("%s: disabled, %s requires %s\n", feature, u.Func, u.Predicate)
	}()
	f()
}

func main() {
	jobs := []Job{{ID: 42, Status: "doing"}}

	// Output: protojson: {"id":"42","status":"doing"}
	try("protojson", func() {
		s, err := JobToJSON(jobs[0])
		if err != nil {
			panic(err)
		}
		fmt.Println("protojson:", s)
	})

	// Output: openapi: [/jobs] <nil>
	try("openapi", func() {
		if err := ValidateSpec(context.Background(), []byte(spec)); err != nil {
			panic(err)
		}
		paths, err := Paths([]byte(spec))
		fmt.Println("openapi:", paths, err)
	})

	// Output: http: 2 routes
	try("http", func() {
		e := NewServer(jobs)
		fmt.Printf("http: %d routes\n", len(e.Routes()))
	})
}
