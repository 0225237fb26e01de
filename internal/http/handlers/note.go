package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/response"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/services"
)

var errInvalidNotesData = apierr.Msg(http.StatusBadRequest, "invalid_notes_data", "Invalid notes data format")

type NoteHandler struct {
	noteService services.NoteService
}

func NewNoteHandler(noteService services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.noteService.ListNotes(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notes": notes})
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req services.NoteInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	note, err := h.noteService.CreateNote(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"note": note})
}

func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.noteService.GetNote(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"note": note})
}

func (h *NoteHandler) Update(c *gin.Context) {
	var req services.NotePatch
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	note, err := h.noteService.UpdateNote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"note": note})
}

func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.noteService.DeleteNote(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Note deleted successfully"})
}

func (h *NoteHandler) Import(c *gin.Context) {
	var req struct {
		NotesData json.RawMessage `json:"notesData"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	var notes []services.NoteInput
	if len(req.NotesData) == 0 || req.NotesData[0] != '[' || json.Unmarshal(req.NotesData, &notes) != nil {
		response.Fail(c, errInvalidNotesData)
		return
	}
	count, err := h.noteService.ImportNotes(c.Request.Context(), notes)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"imported": gin.H{"count": count}})
}

func (h *NoteHandler) Search(c *gin.Context) {
	results, err := h.noteService.SearchNotes(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": results})
}
