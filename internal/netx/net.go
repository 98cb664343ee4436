// Package netx holds small HTTP helpers shared by clients.
package netx

import (
	"bytes"
	"io"
	"mime/multipart"
	"sort"
)

// MultipartBody encodes fields and, when file is non-nil, one file part
// under fileField as multipart/form-data. It returns the body and the
// matching Content-Type header value.
func MultipartBody(fields map[string]string, fileField, fileName string, file io.Reader) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", err
		}
	}

	if file != nil {
		part, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
