package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

const defaultFileContentType = "application/octet-stream"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// RequestWithFile sends req with the file at filePath attached as a multipart/form-data
// part named "file". The descriptor's JSON entity, if any, becomes the first part.
// The request is sent exactly once; the retry policy is never consulted because the
// upload is not re-sent. objectType is accepted for API symmetry and is unused.
func (c *Client) RequestWithFile(ctx context.Context, req *Request, objectType, filePath, fileType string) (*Response, error) {
	_ = objectType

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	ctx = WithTraceID(ctx, EnsureTraceID(ctx))

	wire, entity, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, NewFilesystemError(filePath, err)
	}

	body, contentType, err := encodeMultipart(entity, content, filepath.Base(filePath), fileType)
	if err != nil {
		return nil, fmt.Errorf("failed to encode multipart body: %w", err)
	}
	setBody(wire, body)
	wire.Header.Set(headerContentType, contentType)

	return c.send(ctx, wire, body, 1, c.now())
}

// encodeMultipart builds the form body and returns it with its Content-Type header value.
func encodeMultipart(entity, file []byte, fileName, fileType string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if entity != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", "form-data")
		h.Set("Content-Type", contentTypeJSON+"; charset=utf-8")
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(entity); err != nil {
			return nil, "", err
		}
	}

	if fileType == "" {
		fileType = defaultFileContentType
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", fileType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
