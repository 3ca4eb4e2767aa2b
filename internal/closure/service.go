package closure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"deqpkit/internal/toolrun"
)

// DefaultEndpoint is the hosted Closure Compiler service.
const DefaultEndpoint = "https://closure-compiler.appspot.com/compile"

// Service is a client for the hosted compiler.
type Service struct {
	Endpoint string
	Client   *http.Client
}

func (s Service) endpoint() string {
	if s.Endpoint == "" {
		return DefaultEndpoint
	}
	return s.Endpoint
}

func (s Service) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}

// ServiceRequest is one POST to the hosted compiler. It implements
// toolrun.Tool; the raw response body becomes the section output.
type ServiceRequest struct {
	Service  Service
	CodeURLs []string
	// Code is sent as js_code. Files are read at send time and appended as
	// additional js_code values.
	Code   []string
	Files  []string
	Level  CompilationLevel
	Format OutputFormat
	Info   []OutputInfo
}

// Form returns the url-encoded request body fields. Files are not included.
func (r ServiceRequest) Form() url.Values {
	form := url.Values{}
	for _, u := range r.CodeURLs {
		form.Add("code_url", u)
	}
	for _, c := range r.Code {
		form.Add("js_code", c)
	}
	level := r.Level
	if level == "" {
		level = WhitespaceOnly
	}
	form.Set("compilation_level", string(level))
	format := r.Format
	if format == "" {
		format = FormatText
	}
	form.Set("output_format", string(format))
	info := r.Info
	if len(info) == 0 {
		info = []OutputInfo{InfoCompiledCode}
	}
	for _, i := range info {
		form.Add("output_info", string(i))
	}
	return form
}

// Describe summarizes the request for headers and logs.
func (r ServiceRequest) Describe() string {
	var parts []string
	parts = append(parts, "POST", r.Service.endpoint())
	for _, u := range r.CodeURLs {
		parts = append(parts, "code_url="+u)
	}
	for _, f := range r.Files {
		parts = append(parts, "js_code@"+f)
	}
	parts = append(parts, "compilation_level="+r.Form().Get("compilation_level"))
	return strings.Join(parts, " ")
}

// Stream sends the request and copies the response body to stdout. A non-2xx
// status is returned as an error after the body has been copied.
func (r ServiceRequest) Stream(ctx context.Context, stdout, _ io.Writer) error {
	form := r.Form()
	for _, f := range r.Files {
		data, err := os.ReadFile(f)
		if err != nil {
			return &toolrun.LaunchError{Tool: r.Service.endpoint(), Err: err}
		}
		form.Add("js_code", string(data))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Service.endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return &toolrun.LaunchError{Tool: r.Service.endpoint(), Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.Service.client().Do(req)
	if err != nil {
		if timedOut(ctx, err) {
			return toolrun.ErrTimeout
		}
		return &toolrun.LaunchError{Tool: r.Service.endpoint(), Err: err}
	}
	defer resp.Body.Close()

	if _, err := io.Copy(stdout, resp.Body); err != nil {
		if timedOut(ctx, err) {
			return toolrun.ErrTimeout
		}
		return fmt.Errorf("failed to read service response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("compiler service returned %s", resp.Status)
	}
	return nil
}

// timedOut reports whether err comes from the batch deadline or the client's
// own timeout.
func timedOut(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
