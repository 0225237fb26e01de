package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/response"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/services"
)

type QuizHandler struct {
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

func (h *QuizHandler) List(c *gin.Context) {
	quizzes, err := h.quizService.ListQuizzes(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"data": quizzes})
}

func (h *QuizHandler) Create(c *gin.Context) {
	var req services.QuizInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	quiz, err := h.quizService.CreateQuiz(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"data": quiz})
}

func (h *QuizHandler) Get(c *gin.Context) {
	quiz, err := h.quizService.GetQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"data": quiz})
}

func (h *QuizHandler) Update(c *gin.Context) {
	var req services.QuizPatch
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	quiz, err := h.quizService.UpdateQuiz(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"data": quiz})
}

func (h *QuizHandler) Delete(c *gin.Context) {
	if err := h.quizService.DeleteQuiz(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Quiz deleted"})
}

func (h *QuizHandler) Attempt(c *gin.Context) {
	var req services.AttemptInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	attempt, err := h.quizService.CreateAttempt(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"data": attempt})
}

func (h *QuizHandler) Results(c *gin.Context) {
	attempts, err := h.quizService.ListAttempts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"data": attempts})
}

func (h *QuizHandler) Generate(c *gin.Context) {
	var req services.GenerateInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	quiz, err := h.quizService.GenerateQuiz(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"data": quiz})
}
