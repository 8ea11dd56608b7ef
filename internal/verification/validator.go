// Package verification checks the structured output of each generation stage.
// Every check is a pure function of its inputs: the same result always yields
// the same verdict, so an accepted result re-validates cleanly.
package verification

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultDrawPileShare is the number of cards per player that must remain in
// the draw pile after the initial deal.
const DefaultDrawPileShare = 2

// DefaultTrapKeywords mark card types whose draw pile count scales with the
// number of players.
var DefaultTrapKeywords = []string{"mazmorra", "trap", "trampa"}

// Options tunes the semantic checks.
type Options struct {
	DrawPileShare int
	TrapKeywords  []string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		DrawPileShare: DefaultDrawPileShare,
		TrapKeywords:  append([]string(nil), DefaultTrapKeywords...),
	}
}

// Result is the verdict of one validator.
type Result struct {
	Passed   bool     `json:"passed"`
	Reason   string   `json:"reason,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func newResult(problems []string) Result {
	if len(problems) == 0 {
		return Result{Passed: true}
	}
	return Result{Reason: strings.Join(problems, "; "), Problems: problems}
}

// Validator holds the stage checks. It is safe for concurrent use.
type Validator struct {
	opts       Options
	structural *validator.Validate
}

// New creates a Validator. Zero option values fall back to the defaults.
func New(opts Options) *Validator {
	if opts.DrawPileShare <= 0 {
		opts.DrawPileShare = DefaultDrawPileShare
	}
	if len(opts.TrapKeywords) == 0 {
		opts.TrapKeywords = append([]string(nil), DefaultTrapKeywords...)
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{opts: opts, structural: v}
}

// Options returns the effective options.
func (v *Validator) Options() Options {
	return v.opts
}

// checkStruct runs the struct tag rules and reports each failure by its
// JSON path, prefixed with prefix when set.
func (v *Validator) checkStruct(prefix string, s any) []string {
	err := v.structural.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{fmt.Sprintf("%s: %v", strings.TrimSuffix(prefix, "."), err)}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		problems = append(problems, fmt.Sprintf("%s%s %s", prefix, path, describeTag(fe)))
	}
	return problems
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("needs at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
