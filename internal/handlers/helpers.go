package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads at most maxBytes of JSON from the request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return errEmptyBody
		case errors.As(err, &maxBytesErr):
			return err
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return &decodeError{field: typeErr.Field, err: fmt.Errorf("malformed JSON: %s must be %s", typeErr.Field, typeErr.Type)}
		default:
			return &decodeError{err: fmt.Errorf("malformed JSON: %w", err)}
		}
	}

	if dec.More() {
		return &decodeError{err: errors.New("malformed JSON: unexpected data after the top-level value")}
	}
	return nil
}

// decodeError is a client-side body problem
type decodeError struct {
	field string
	err   error
}

func (e *decodeError) Error() string {
	return e.err.Error()
}

func (e *decodeError) Unwrap() error {
	return e.err
}
