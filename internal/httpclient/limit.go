package httpclient

import (
	"errors"
	"fmt"
	"io"
)

// ResponseTooLargeError reports a response body that exceeded the configured
// bound before it was fully read.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body larger than %d bytes", e.Limit)
}

// IsResponseTooLarge reports whether err (or anything it wraps) is a
// ResponseTooLargeError.
func IsResponseTooLarge(err error) bool {
	var tooLarge ResponseTooLargeError
	return errors.As(err, &tooLarge)
}

// ReadAllWithLimit reads r to completion but refuses bodies larger than limit
// bytes, so a misbehaving server cannot balloon the client's memory. A limit
// of zero or less reads without bound.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}
