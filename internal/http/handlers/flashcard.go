package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/response"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/services"
)

type FlashcardHandler struct {
	flashcardService services.FlashcardService
}

func NewFlashcardHandler(flashcardService services.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{flashcardService: flashcardService}
}

func (h *FlashcardHandler) List(c *gin.Context) {
	cards, err := h.flashcardService.ListFlashcards(c.Request.Context(), c.Query("tag"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"data": cards})
}

func (h *FlashcardHandler) Create(c *gin.Context) {
	var req services.FlashcardInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	card, err := h.flashcardService.CreateFlashcard(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"data": card})
}

func (h *FlashcardHandler) Get(c *gin.Context) {
	card, err := h.flashcardService.GetFlashcard(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"data": card})
}

func (h *FlashcardHandler) Update(c *gin.Context) {
	var req services.FlashcardPatch
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	card, err := h.flashcardService.UpdateFlashcard(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"data": card})
}

func (h *FlashcardHandler) Delete(c *gin.Context) {
	if err := h.flashcardService.DeleteFlashcard(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Flashcard deleted"})
}

func (h *FlashcardHandler) Generate(c *gin.Context) {
	var req services.GenerateInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	cards, err := h.flashcardService.GenerateFlashcards(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"data": cards})
}

func (h *FlashcardHandler) Stats(c *gin.Context) {
	stats, err := h.flashcardService.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"data": stats})
}
