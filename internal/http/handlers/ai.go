package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/response"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/services"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/sse"
)

const streamHeartbeat = 15 * time.Second

var (
	errMessagesRequired = apierr.Msg(http.StatusBadRequest, "bad_request", "messages array required")
	errPromptRequired   = apierr.Msg(http.StatusBadRequest, "bad_request", "prompt required")
	errNotPDF           = apierr.Msg(http.StatusBadRequest, "not_pdf", "File must be a PDF (application/pdf)")
	errNoSummarySource  = apierr.Msg(http.StatusBadRequest, "bad_request", "File field 'file' is required (multipart/form-data) or provide 'text'")
)

type AIHandler struct {
	log       *logger.Logger
	aiService services.AIService
}

func NewAIHandler(log *logger.Logger, aiService services.AIService) *AIHandler {
	return &AIHandler{log: log.With("handler", "AIHandler"), aiService: aiService}
}

func (h *AIHandler) Chat(c *gin.Context) {
	var req struct {
		Messages []services.ChatMessage `json:"messages"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	if len(req.Messages) == 0 {
		response.Fail(c, errMessagesRequired)
		return
	}
	reply, err := h.aiService.Chat(c.Request.Context(), req.Messages)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"data": gin.H{"reply": reply}})
}

// ChatStream relays model deltas as server-sent events. Failures before the
// first delta get a normal JSON error; later ones become an error event.
func (h *AIHandler) ChatStream(c *gin.Context) {
	prompt := strings.TrimSpace(c.Query("prompt"))
	if prompt == "" && c.Request.Body != nil && c.Request.Body != http.NoBody {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := bindJSON(c, &req); err != nil {
			response.Fail(c, err)
			return
		}
		prompt = strings.TrimSpace(req.Prompt)
	}
	if prompt == "" {
		response.Fail(c, errPromptRequired)
		return
	}

	var heartbeats sync.WaitGroup
	defer heartbeats.Wait()
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var stream *sse.Stream
	open := func() error {
		if stream != nil {
			return nil
		}
		s, err := sse.Open(c.Writer)
		if err != nil {
			return err
		}
		stream = s
		heartbeats.Add(1)
		go func() {
			defer heartbeats.Done()
			stream.Heartbeat(ctx, streamHeartbeat)
		}()
		return nil
	}

	err := h.aiService.StreamChat(ctx, prompt, func(delta string) error {
		if err := open(); err != nil {
			return err
		}
		return stream.Send("", gin.H{"delta": delta})
	})
	if err != nil {
		if stream == nil {
			response.Fail(c, err)
			return
		}
		h.log.Warn("Chat stream failed after start", "error", err)
		_ = stream.Send("error", gin.H{"message": clientMessage(err)})
		return
	}
	if err := open(); err != nil {
		response.Fail(c, err)
		return
	}
	_ = stream.Send("done", gin.H{})
}

func (h *AIHandler) Summarize(c *gin.Context) {
	ctx := c.Request.Context()
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err == nil {
			if !strings.Contains(strings.ToLower(fh.Header.Get("Content-Type")), "pdf") {
				response.Fail(c, errNotPDF)
				return
			}
			f, err := fh.Open()
			if err != nil {
				response.Fail(c, response.NewUploadError("open_failed", err))
				return
			}
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				response.Fail(c, err)
				return
			}
			summary, err := h.aiService.SummarizePDF(ctx, data)
			if err != nil {
				response.Fail(c, err)
				return
			}
			response.RespondOK(c, gin.H{"summary": summary})
			return
		}
		if fe := formFileError(err, nil); fe != nil {
			response.Fail(c, fe)
			return
		}
		h.summarizeText(c, c.PostForm("text"))
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if strings.HasPrefix(c.ContentType(), "application/x-www-form-urlencoded") {
		req.Text = c.PostForm("text")
	} else if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	h.summarizeText(c, req.Text)
}

func (h *AIHandler) summarizeText(c *gin.Context, text string) {
	if strings.TrimSpace(text) == "" {
		response.Fail(c, errNoSummarySource)
		return
	}
	summary, err := h.aiService.SummarizeText(c.Request.Context(), text)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": summary})
}

func (h *AIHandler) GenerateFlashcards(c *gin.Context) {
	var req services.GenerateInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	cards, err := h.aiService.GenerateFlashcards(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"flashcards": cards})
}

func (h *AIHandler) GenerateNotes(c *gin.Context) {
	var req services.GenerateInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	note, err := h.aiService.GenerateNote(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"note": note})
}

func (h *AIHandler) GenerateQuiz(c *gin.Context) {
	var req services.GenerateInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	quiz, err := h.aiService.GenerateQuiz(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quiz": quiz})
}

func (h *AIHandler) Explain(c *gin.Context) {
	var req struct {
		SourceText string `json:"sourceText"`
		Question   string `json:"question"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	explanation, err := h.aiService.Explain(c.Request.Context(), req.SourceText, req.Question)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"explanation": explanation})
}

func clientMessage(err error) string {
	if ae, ok := apierr.As(err); ok {
		return ae.Error()
	}
	return "AI: stream interrupted"
}
