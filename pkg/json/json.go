package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/xilidan/meetings/pkg/apperr"
)

const maxBodyBytes = 1 << 20

// ParseJSON decodes the request body into model. An empty or malformed body
// is reported as a validation error.
func ParseJSON(r *http.Request, model any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return apperr.Validation("missing request body")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(model); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("missing request body")
		}
		return apperr.Validation("malformed request body: %v", err)
	}

	return nil
}

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

func WriteProtoJSON(w http.ResponseWriter, status int, msg proto.Message) error {
	marshaler := protojson.MarshalOptions{
		EmitUnpopulated: false,
		UseProtoNames:   false,
		UseEnumNumbers:  false,
	}

	data, err := marshaler.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal protobuf to JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// WriteAppError picks the status code from the error kind and hides
// internal details behind a generic message.
func WriteAppError(w http.ResponseWriter, err error) {
	WriteJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Public(err)})
}
