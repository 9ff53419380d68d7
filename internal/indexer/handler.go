package indexer

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/telemetry"
)

// MaxBookBytes bounds a single multipart upload.
const MaxBookBytes = 32 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type askRequest struct {
	UserID   string `json:"user_id"`
	BookName string `json:"book_name"`
	Query    string `json:"query"`
}

type chunkView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/books/", h.uploadBook)
	r.POST("/books/delete", h.deleteBook)
	r.GET("/books/:user_id", h.listBooks)
	r.GET("/books/:user_id/", h.listBooks)
	r.POST("/questions/", h.ask)
	r.GET("/debug/indexed_chunks/:user_id/:book_name", h.indexedChunks)
}

func (h *Handler) uploadBook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBookBytes)
	userID := strings.TrimSpace(c.PostForm("user_id"))
	fh, err := c.FormFile("file")
	if err != nil || userID == "" {
		detail(c, http.StatusUnprocessableEntity, "file and user_id are required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		detail(c, http.StatusBadRequest, "unable to read upload")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		detail(c, http.StatusBadRequest, "unable to read upload")
		return
	}

	status, err := h.svc.IndexBook(c.Request.Context(), userID, fh.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			detail(c, http.StatusBadRequest, "Please upload a valid PDF file.")
		case errors.Is(err, ErrUnreadable):
			detail(c, http.StatusUnprocessableEntity, "No readable text found in the book.")
		default:
			telemetry.Error("indexer.upload_failed", map[string]any{
				"user_id":   userID,
				"book_name": fh.Filename,
				"err":       err.Error(),
			})
			detail(c, http.StatusInternalServerError, "Error while indexing the book.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) deleteBook(c *gin.Context) {
	userID := strings.TrimSpace(c.PostForm("user_id"))
	bookName := c.PostForm("book_name")
	if userID == "" || strings.TrimSpace(bookName) == "" {
		detail(c, http.StatusUnprocessableEntity, "user_id and book_name are required")
		return
	}
	status, err := h.svc.DeleteBook(c.Request.Context(), userID, bookName)
	if err != nil {
		if errors.Is(err, ErrNotIndexed) {
			detail(c, http.StatusNotFound, "No chunks found for book '"+bookName+"' and user '"+userID+"'.")
			return
		}
		h.internal(c, "indexer.delete_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) listBooks(c *gin.Context) {
	books, err := h.svc.Books(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			detail(c, http.StatusUnprocessableEntity, "user_id is required")
			return
		}
		h.internal(c, "indexer.list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	answer, err := h.svc.Ask(c.Request.Context(), req.UserID, req.BookName, req.Query)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			detail(c, http.StatusUnprocessableEntity, "user_id, book_name and query are required")
		case errors.Is(err, ErrNoMatch):
			detail(c, http.StatusNotFound, "No relevant content found.")
		default:
			h.internal(c, "indexer.ask_failed", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (h *Handler) indexedChunks(c *gin.Context) {
	records, err := h.svc.Chunks(c.Request.Context(), c.Param("user_id"), c.Param("book_name"))
	if err != nil {
		h.internal(c, "indexer.chunks_failed", err)
		return
	}
	out := make([]chunkView, 0, len(records))
	for _, r := range records {
		out = append(out, chunkView{ID: r.ID, Text: r.Text})
	}
	c.JSON(http.StatusOK, gin.H{"chunks": out})
}

func (h *Handler) internal(c *gin.Context, event string, err error) {
	telemetry.Error(event, map[string]any{
		"err":  err.Error(),
		"path": c.FullPath(),
	})
	detail(c, http.StatusInternalServerError, "Internal server error.")
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}
