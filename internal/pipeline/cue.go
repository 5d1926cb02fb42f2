package pipeline

import (
	"context"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// CUE evaluates fixtures as CUE documents.
//
// A fixture that evaluates to a concrete value renders as one line of
// canonical JSON. Otherwise every evaluation error renders as
// "<id>:<line>:<col>: <message>", one per line.
type CUE struct{}

// NewCUE creates a CUE pipeline.
func NewCUE() *CUE {
	return &CUE{}
}

func (c *CUE) Name() string {
	return KindCUE
}

func (c *CUE) Process(ctx context.Context, src Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Each fixture gets its own context; cue.Context is not shared across
	// goroutines here.
	cctx := cuecontext.New()
	v := cctx.CompileBytes(src.Content, cue.Filename(string(src.ID)))
	if err := v.Err(); err != nil {
		return renderCUEErrors(err), nil
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return renderCUEErrors(err), nil
	}

	data, err := v.MarshalJSON()
	if err != nil {
		return renderCUEErrors(err), nil
	}
	out, err := Canonicalize(data)
	if err != nil {
		return nil, fmt.Errorf("cue %s: %w", src.ID, err)
	}
	return append(out, '\n'), nil
}

func renderCUEErrors(err error) []byte {
	var b strings.Builder
	for _, e := range errors.Errors(errors.Sanitize(errors.Promote(err, ""))) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := strings.Join(e.Path(), "."); path != "" {
			msg = path + ": " + msg
		}

		pos := e.Position()
		if pos.IsValid() {
			fmt.Fprintf(&b, "%s:%d:%d: %s\n", pos.Filename(), pos.Line(), pos.Column(), msg)
		} else {
			fmt.Fprintf(&b, "%s\n", msg)
		}
	}
	return []byte(b.String())
}
