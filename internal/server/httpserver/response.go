package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/productkeeper/internal/common"
	"github.com/dmitrijs2005/productkeeper/internal/server/validation"
	"github.com/labstack/echo/v4"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	msgValidationFailed = "Validation failed"
)

// errMalformedBody is returned when a request body cannot be bound.
var errMalformedBody = errors.New("malformed request body")

type field struct {
	key   string
	value any
}

// Result is the outcome of one handler: either a success with payload
// fields or a failure with its cause. The HTTP status of a failure is
// derived from the cause.
type Result struct {
	code    int
	message string
	data    []field
	err     error
}

// OK builds a success Result. kv alternates payload keys and values.
func OK(code int, message string, kv ...any) Result {
	r := Result{code: code, message: message}
	for i := 0; i+1 < len(kv); i += 2 {
		k, _ := kv[i].(string)
		r.data = append(r.data, field{key: k, value: kv[i+1]})
	}
	return r
}

// Fail builds a failure Result for err.
func Fail(message string, err error) Result {
	return Result{code: statusFor(err), message: message, err: err}
}

func (r Result) Code() int { return r.code }

func (r Result) Err() error { return r.err }

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var verrs *validation.Errors
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verrs), errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrorNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// Envelope is the JSON body written for every enveloped outcome. Keys are
// emitted in a fixed order: status, code, message, then error details or
// payload fields.
type Envelope struct {
	Status  string
	Code    int
	Message string
	Error   string
	Errors  map[string][]string
	Data    []field
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(k string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}

	if err := write("status", e.Status); err != nil {
		return nil, err
	}
	if err := write("code", e.Code); err != nil {
		return nil, err
	}
	if err := write("message", e.Message); err != nil {
		return nil, err
	}
	if e.Error != "" {
		if err := write("error", e.Error); err != nil {
			return nil, err
		}
	}
	if len(e.Errors) > 0 {
		if err := write("errors", e.Errors); err != nil {
			return nil, err
		}
	}
	for _, f := range e.Data {
		if err := write(f.key, f.value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// envelope converts r to its wire form. Internal error text is only
// included for 5xx results when exposeErrors is set; validation failures
// carry their field errors.
func envelope(r Result, exposeErrors bool) Envelope {
	if r.err == nil {
		return Envelope{Status: statusSuccess, Code: r.code, Message: r.message, Data: r.data}
	}

	e := Envelope{Status: statusError, Code: r.code, Message: r.message}

	var verrs *validation.Errors
	switch {
	case errors.As(r.err, &verrs):
		e.Message = msgValidationFailed
		e.Errors = verrs.Fields
	case errors.Is(r.err, errMalformedBody):
		e.Error = r.err.Error()
	case r.code >= http.StatusInternalServerError && r.code != http.StatusNotImplemented && exposeErrors:
		e.Error = r.err.Error()
	}

	return e
}

// respond logs r and writes it as an envelope.
func (s *Server) respond(c echo.Context, op string, r Result) error {
	ctx := c.Request().Context()
	args := []any{"op", op, "code", r.code, "request_id", c.Response().Header().Get(echo.HeaderXRequestID)}

	switch {
	case r.err == nil:
		s.logger.Info(ctx, r.message, args...)
	case r.code >= http.StatusInternalServerError && r.code != http.StatusNotImplemented:
		s.logger.Error(ctx, r.message, append(args, "error", r.err)...)
	default:
		s.logger.Warn(ctx, r.message, append(args, "error", r.err)...)
	}

	return c.JSON(r.code, envelope(r, s.exposeErrors))
}
