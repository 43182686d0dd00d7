package utils

import (
	"encoding/json"
	"net/http"
)

// ParseJSON decodes the request body into v.
func ParseJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
