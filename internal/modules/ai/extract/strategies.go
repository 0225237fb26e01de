package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/unidoc/unipdf/v3/common/license"
	pdfextractor "github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/llm"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/prompts"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/envutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/gcp"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

// ---- gemini_file ----

// FileGenerator prompts a model against an uploaded document. *llm.Gateway
// satisfies it.
type FileGenerator interface {
	SupportsFiles() bool
	GenerateFromFile(ctx context.Context, req llm.FileRequest) (string, error)
}

type geminiFile struct {
	gen    FileGenerator
	prompt prompts.Prompt
}

// NewGeminiFile summarizes the PDF directly through the Gemini Files API,
// going through gen for model fallback and retries.
func NewGeminiFile(gen FileGenerator, prompt prompts.Prompt) Strategy {
	if gen == nil || !gen.SupportsFiles() {
		return nil
	}
	return &geminiFile{gen: gen, prompt: prompt}
}

func (g *geminiFile) Name() string { return "gemini_file" }

func (g *geminiFile) Extract(ctx context.Context, pdf []byte) (Output, error) {
	text, err := g.gen.GenerateFromFile(ctx, llm.FileRequest{
		System:   g.prompt.System,
		Prompt:   g.prompt.User,
		MIMEType: "application/pdf",
		Name:     "upload.pdf",
		Data:     pdf,
	})
	if err != nil {
		return Output{}, err
	}
	return Output{Text: clean(text), Summarized: true}, nil
}

// ---- unipdf ----

var unidocLicenseOnce sync.Once

type unipdf struct {
	log *logger.Logger
}

func NewUniPDF(log *logger.Logger) Strategy {
	unidocLicenseOnce.Do(func() {
		key := envutil.String("UNIDOC_LICENSE_KEY", "")
		if key == "" {
			log.Warn("UNIDOC_LICENSE_KEY not set; unipdf extraction may fail")
			return
		}
		if err := license.SetMeteredKey(key); err != nil {
			log.Warn("Failed to set Unidoc license key", "error", err)
		}
	})
	return &unipdf{log: log.With("strategy", "unipdf")}
}

func (u *unipdf) Name() string { return "unipdf" }

func (u *unipdf) Extract(ctx context.Context, pdf []byte) (Output, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(pdf))
	if err != nil {
		return Output{}, fmt.Errorf("open pdf: %w", err)
	}
	if encrypted, err := reader.IsEncrypted(); err == nil && encrypted {
		ok, derr := reader.Decrypt([]byte(""))
		if derr != nil || !ok {
			return Output{}, errors.New("pdf is encrypted")
		}
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return Output{}, fmt.Errorf("page count: %w", err)
	}

	var sb strings.Builder
	failed := 0
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}
		page, err := reader.GetPage(i)
		if err != nil {
			failed++
			continue
		}
		ex, err := pdfextractor.New(page)
		if err != nil {
			failed++
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			failed++
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	if failed > 0 {
		u.log.Debug("unipdf skipped pages", "failed", failed, "pages", numPages)
	}
	if numPages > 0 && failed == numPages {
		return Output{}, fmt.Errorf("all %d pages failed", numPages)
	}
	return Output{Text: clean(sb.String())}, nil
}

// ---- pdftotext ----

type pdfToText struct {
	timeout time.Duration
}

func NewPDFToText() Strategy {
	return &pdfToText{timeout: 2 * time.Minute}
}

func (p *pdfToText) Name() string { return "pdftotext" }

func (p *pdfToText) Extract(ctx context.Context, pdf []byte) (Output, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return Output{}, fmt.Errorf("pdftotext not found in PATH: %w", err)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "studypal_pdftotext_*")
	if err != nil {
		return Output{}, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "in.pdf")
	outPath := filepath.Join(tmpDir, "out.txt")
	if err := os.WriteFile(inPath, pdf, 0o600); err != nil {
		return Output{}, fmt.Errorf("write temp pdf: %w", err)
	}

	cmd := exec.CommandContext(callCtx, "pdftotext", "-enc", "UTF-8", "-q", inPath, outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return Output{}, fmt.Errorf("pdftotext: %w; stderr=%s", err, s)
		}
		return Output{}, fmt.Errorf("pdftotext: %w", err)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		return Output{}, fmt.Errorf("read pdftotext output: %w", err)
	}
	return Output{Text: clean(string(b))}, nil
}

// ---- docai ----

type docAI struct {
	doc gcp.Document
}

// NewDocAI OCRs the PDF with Document AI; nil when no processor is configured.
func NewDocAI(doc gcp.Document) Strategy {
	if doc == nil {
		return nil
	}
	return &docAI{doc: doc}
}

func (d *docAI) Name() string { return "docai" }

func (d *docAI) Extract(ctx context.Context, pdf []byte) (Output, error) {
	res, err := d.doc.ProcessBytes(ctx, "application/pdf", pdf)
	if err != nil {
		return Output{}, fmt.Errorf("docai %s: %w", gcp.DocAIErrorClass(err), err)
	}
	if res == nil {
		return Output{}, errors.New("docai returned no document")
	}
	return Output{Text: clean(res.Text())}, nil
}
