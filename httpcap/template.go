package httpcap

import (
	"context"
	"fmt"
	"regexp"
)

// Template is a named, reusable HTTP request shape: method, URL, headers,
// and body may each contain {{var}} placeholders, filled in from the
// content node's request body at execution time (spec.md §4.9).
type Template struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// TemplateSet resolves template names to their definitions. A canvas
// author registers templates out of band (settings, a config file); the
// graph itself only ever refers to them by name — HTTP template
// execution is an injected capability, not something the core specifies
// (spec.md §1, §6).
type TemplateSet map[string]Template

// TemplateExecutor is the capability an HTTP content node's behavior
// depends on: executeTemplate(template, body) → string|error (spec.md §6).
type TemplateExecutor interface {
	ExecuteTemplate(ctx context.Context, template string, body any) (string, error)
}

var placeholder = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// TemplateClient resolves a named template from a TemplateSet,
// interpolates the request body into its {{var}} placeholders, and
// issues the result over an Executor (retry/backoff included).
type TemplateClient struct {
	Templates TemplateSet
	Executor  Executor
}

// NewTemplateClient builds a TemplateClient. A nil exec defaults to
// NewClient().
func NewTemplateClient(templates TemplateSet, exec Executor) *TemplateClient {
	if exec == nil {
		exec = NewClient()
	}
	return &TemplateClient{Templates: templates, Executor: exec}
}

var _ TemplateExecutor = (*TemplateClient)(nil)

// ExecuteTemplate interpolates body into template's placeholders and
// issues the resulting request, returning the response body.
func (c *TemplateClient) ExecuteTemplate(ctx context.Context, template string, body any) (string, error) {
	tpl, ok := c.Templates[template]
	if !ok {
		return "", fmt.Errorf("httpcap: unknown template %q", template)
	}

	fields := make([]string, 0, len(tpl.Headers)+3)
	fields = append(fields, tpl.Method, tpl.URL, tpl.Body)
	for _, v := range tpl.Headers {
		fields = append(fields, v)
	}
	names := placeholderNames(fields)

	vars, err := resolveBody(body, names)
	if err != nil {
		return "", fmt.Errorf("httpcap: template %q: %w", template, err)
	}

	method := interpolate(tpl.Method, vars)
	if method == "" {
		method = "GET"
	}
	headers := make(map[string]string, len(tpl.Headers))
	for k, v := range tpl.Headers {
		headers[k] = interpolate(v, vars)
	}

	resp, err := c.Executor.Do(ctx, Request{
		Method:  method,
		URL:     interpolate(tpl.URL, vars),
		Headers: headers,
		Body:    interpolate(tpl.Body, vars),
	})
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

// resolveBody normalizes body into the exact name→value map names
// requires, erroring on any placeholder left unfilled or any supplied
// variable the template never references (spec.md §4.9: "missing or
// extra variables are errors"). A bare string body is only valid
// against a template with exactly one placeholder.
func resolveBody(body any, names []string) (map[string]string, error) {
	var vars map[string]string
	switch v := body.(type) {
	case nil:
		vars = map[string]string{}
	case string:
		if len(names) != 1 {
			return nil, fmt.Errorf("string body requires exactly one placeholder, template has %d", len(names))
		}
		return map[string]string{names[0]: v}, nil
	case map[string]string:
		vars = v
	case map[string]any:
		vars = make(map[string]string, len(v))
		for k, val := range v {
			vars[k] = fmt.Sprintf("%v", val)
		}
	default:
		return nil, fmt.Errorf("unsupported body type %T", body)
	}

	need := make(map[string]bool, len(names))
	for _, n := range names {
		need[n] = true
	}
	for n := range need {
		if _, ok := vars[n]; !ok {
			return nil, fmt.Errorf("missing variable %q", n)
		}
	}
	for k := range vars {
		if !need[k] {
			return nil, fmt.Errorf("unused variable %q", k)
		}
	}
	return vars, nil
}

func placeholderNames(fields []string) []string {
	seen := map[string]bool{}
	var names []string
	for _, f := range fields {
		for _, m := range placeholder.FindAllStringSubmatch(f, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}
	return names
}

func interpolate(s string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(tok string) string {
		return vars[tok[2:len(tok)-2]]
	})
}
