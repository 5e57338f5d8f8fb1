package v1

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var errMalformedJSON = errors.New("malformed json")

// bindJSON is c.ShouldBindJSON that also rejects trailing data after
// the first JSON value. An empty body yields io.EOF.
func bindJSON(c *gin.Context, obj any) error {
	data, err := c.GetRawData()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return io.EOF
	}
	if !json.Valid(data) {
		return errMalformedJSON
	}

	return binding.JSON.BindBody(data, obj)
}

// optionalField records whether a JSON field was present at all.
// Value stays nil for an explicit null.
type optionalField[T any] struct {
	Value *T
	Set   bool
}

func (f *optionalField[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}

	var v T
	err := json.Unmarshal(data, &v)
	if err != nil {
		return err
	}
	f.Value = &v
	return nil
}
