// Package extract turns uploaded PDFs into text by walking an ordered chain
// of strategies until one yields readable output.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/observability"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

const DefaultMinChars = 20

var ErrUnreadable = apierr.Msg(http.StatusUnprocessableEntity, "pdf_unreadable",
	"Could not extract readable text from the PDF (it may be scanned, encrypted or empty)")

// Output is what a single strategy produced. Summarized is set when the
// strategy already answered with a summary rather than raw text.
type Output struct {
	Text       string
	Summarized bool
}

type Strategy interface {
	Name() string
	Extract(ctx context.Context, pdf []byte) (Output, error)
}

type Result struct {
	Output
	Strategy string
	Warnings []string
	Diag     map[string]any
}

type Pipeline struct {
	log        *logger.Logger
	strategies []Strategy
	minChars   int
}

func NewPipeline(log *logger.Logger, strategies ...Strategy) *Pipeline {
	var kept []Strategy
	for _, s := range strategies {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Pipeline{
		log:        log.With("service", "PDFExtractor"),
		strategies: kept,
		minChars:   DefaultMinChars,
	}
}

func (p *Pipeline) Strategies() []string {
	names := make([]string, 0, len(p.strategies))
	for _, s := range p.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Run tries each strategy in order and returns the first output carrying at
// least minChars non-space characters.
func (p *Pipeline) Run(ctx context.Context, pdf []byte) (*Result, error) {
	res := &Result{Diag: map[string]any{"pipeline": "pdf", "bytes": len(pdf)}}
	for _, s := range p.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := s.Name()
		start := time.Now()
		out, err := s.Extract(ctx, pdf)
		dur := time.Since(start)
		res.Diag[name+"_ms"] = dur.Milliseconds()

		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s failed: %v", name, err))
			res.Diag[name+"_error"] = err.Error()
			observability.Current().ObserveExtraction(name, "error", dur)
			continue
		case NonSpaceChars(out.Text) < p.minChars:
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s produced too little text", name))
			res.Diag[name+"_len"] = len(out.Text)
			observability.Current().ObserveExtraction(name, "weak", dur)
			continue
		}

		res.Diag[name+"_len"] = len(out.Text)
		res.Output = out
		res.Strategy = name
		observability.Current().ObserveExtraction(name, "ok", dur)
		p.log.Info("PDF text extracted",
			"strategy", name,
			"chars", len(out.Text),
			"summarized", out.Summarized,
			"warnings", res.Warnings,
		)
		return res, nil
	}

	p.log.Warn("PDF extraction failed", "warnings", res.Warnings, "diag", res.Diag)
	return res, ErrUnreadable
}

func NonSpaceChars(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
