// Package template renders the brace-delimited templates used in
// archive names, install commands and scripts. Templates contain
// {identifier} placeholders and {identifier(arg1, arg2)} function
// calls; calls run left to right as the template is scanned.
package template

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// UnresolvedVariableError reports a placeholder with no context value.
type UnresolvedVariableError struct {
	Name string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("unresolved template variable {%s}", e.Name)
}

// UnknownFunctionError reports a call to an unregistered function.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown template function %q", e.Name)
}

// Context holds the variables available to a template. All fields are
// addressed by their lowercase snake_case name.
type Context struct {
	Name    string
	Bin     string
	Version string
	OS      string
	Arch    string
	Suffix  string
	BinDir  string
	BinPath string
	AppPath string
}

func (c Context) vars() map[string]string {
	return map[string]string{
		"name":     c.Name,
		"bin":      c.Bin,
		"version":  c.Version,
		"os":       c.OS,
		"arch":     c.Arch,
		"suffix":   c.Suffix,
		"bin_dir":  c.BinDir,
		"bin_path": c.BinPath,
		"app_path": c.AppPath,
	}
}

// Func is a registered template function. Arguments arrive already
// substituted; the return value replaces the call in the output.
type Func func(args []string) (string, error)

// Renderer evaluates templates against a Context. The zero value is
// not usable; construct with New.
type Renderer struct {
	funcs  map[string]Func
	dryRun bool
	fetch  Fetcher
}

// Option configures a Renderer.
type Option func(*Renderer)

// DryRun makes effectful functions return their nominal value without
// performing the effect, so command previews render the exact string
// that a live run would execute.
func DryRun(on bool) Option {
	return func(r *Renderer) { r.dryRun = on }
}

// WithFetcher replaces the HTTP fetch used by download.
func WithFetcher(f Fetcher) Option {
	return func(r *Renderer) { r.fetch = f }
}

// WithFunc registers an additional function.
func WithFunc(name string, fn Func) Option {
	return func(r *Renderer) { r.funcs[name] = fn }
}

// New builds a Renderer with the built-in function registry. Only
// download(url, dest) is registered today; the registry exists so more
// can be added without touching the scanner.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		funcs: map[string]Func{},
		fetch: httpFetch,
	}
	r.funcs["download"] = r.download
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render substitutes placeholders and evaluates function calls in a
// single left-to-right scan. A later placeholder may reference a path
// produced by an earlier call in the same string.
func (r *Renderer) Render(tmpl string, ctx Context) (string, error) {
	vars := ctx.vars()
	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] != '{' {
			out.WriteByte(tmpl[i])
			i++
			continue
		}
		end, ok := matchBrace(tmpl, i)
		if !ok {
			out.WriteByte(tmpl[i])
			i++
			continue
		}
		value, err := r.eval(tmpl[i+1:end], vars)
		if err != nil {
			return "", err
		}
		out.WriteString(value)
		i = end + 1
	}
	return out.String(), nil
}

// eval resolves one brace body: either a bare identifier or a call.
func (r *Renderer) eval(body string, vars map[string]string) (string, error) {
	open := strings.IndexByte(body, '(')
	if open > 0 && strings.HasSuffix(body, ")") && isIdentifier(body[:open]) {
		name := body[:open]
		fn, ok := r.funcs[name]
		if !ok {
			return "", &UnknownFunctionError{Name: name}
		}
		args, err := r.splitArgs(body[open+1:len(body)-1], vars)
		if err != nil {
			return "", err
		}
		log.Debug("template call", "func", name, "args", args, "dry_run", r.dryRun)
		return fn(args)
	}
	value, ok := vars[body]
	if !ok {
		return "", &UnresolvedVariableError{Name: body}
	}
	return value, nil
}

// splitArgs splits a comma-separated argument list and applies
// placeholder substitution to each argument. Substitution only: a
// function call inside an argument is not evaluated.
func (r *Renderer) splitArgs(list string, vars map[string]string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var args []string
	for _, raw := range strings.Split(list, ",") {
		arg, err := substitute(strings.TrimSpace(raw), vars)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func substitute(s string, vars map[string]string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '{' {
			out.WriteByte(s[i])
			i++
			continue
		}
		end, ok := matchBrace(s, i)
		if !ok {
			out.WriteByte(s[i])
			i++
			continue
		}
		name := s[i+1 : end]
		value, found := vars[name]
		if !found {
			return "", &UnresolvedVariableError{Name: name}
		}
		out.WriteString(value)
		i = end + 1
	}
	return out.String(), nil
}

// matchBrace returns the index of the brace closing the one at open,
// tracking nesting so call arguments may contain placeholders.
func matchBrace(s string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
