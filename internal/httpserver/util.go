package httpserver

import (
	"encoding/json"
	"io"
)

// decodeJSON decodes a JSON request body into the destination struct.
// Unknown fields are ignored: storefront clients routinely send extra
// metadata alongside the fields the backend reads. The reader is closed
// after decoding.
func decodeJSON(r io.ReadCloser, dest any) error {
	defer r.Close()
	return json.NewDecoder(r).Decode(dest)
}
