package services

import (
	"bytes"
	"strings"
)

// bytesReader wraps a byte slice in a bytes.Reader for use with excelize.OpenReader.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
