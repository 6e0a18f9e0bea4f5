package handler

import (
	"errors"
	"net/http"

	"github.com/xilidan/meetings/pkg/apperr"
	httpjson "github.com/xilidan/meetings/pkg/json"
)

// writeLookupError is used by the single-resource GET routes, which report a
// missing meeting or chat as 400 rather than 404.
func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		httpjson.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": apperr.Public(err)})
		return
	}
	httpjson.WriteAppError(w, err)
}
