package library

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"library-backend/internal/documents"
	"library-backend/internal/ingest"
	"library-backend/internal/qa"
	"library-backend/internal/qacache"
	"library-backend/internal/shared/apperr"
	"library-backend/internal/shared/server/middleware"
	"library-backend/internal/shared/server/respond"
	"library-backend/internal/shared/telemetry"
)

type Options struct {
	// ServeFiles makes view URLs point at the API's own file route instead
	// of the object store. Used with the local store.
	ServeFiles    bool
	PublicBaseURL string
}

type Handler struct {
	reg  *Registry
	opts Options
}

func NewHandler(reg *Registry, opts Options) *Handler {
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Handler{reg: reg, opts: opts}
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer  string    `json:"answer"`
	Record  qa.Record `json:"record"`
	Warning string    `json:"warning,omitempty"`
}

type historyResponse struct {
	DocumentID string      `json:"documentId"`
	Records    []qa.Record `json:"records"`
	Warning    string      `json:"warning,omitempty"`
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.delete)
	rg.GET("/documents/:id/file", h.file)
	rg.GET("/documents/:id/qa", h.history)
	rg.POST("/documents/:id/questions", h.ask)
	rg.GET("/books", h.books)
}

func (h *Handler) workspace(c *gin.Context) (*Workspace, bool) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return nil, false
	}
	ws, err := h.reg.For(sess)
	if err != nil {
		telemetry.Error("library.workspace_failed", map[string]any{"user_id": sess.OwnerID, "err": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		return nil, false
	}
	return ws, true
}

func (h *Handler) upload(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ingest.MaxUploadBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			writeError(c, ingest.TooLargeError())
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read upload", nil)
		return
	}
	defer f.Close()

	var last float64
	doc, err := ws.Controller.Ingest(c.Request.Context(), ingest.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		SizeBytes:   fh.Size,
		Body:        f,
	}, func(p float64) { last = p })
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("documentId", doc.ID)
	c.Set("statusTransition", "uploaded->cataloged")

	resp := documents.ToResponse(doc)
	resp.ViewURL = h.viewURL(c, ws, doc)
	respond.JSON(c, http.StatusCreated, gin.H{"document": resp, "progress": last})
}

func (h *Handler) list(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	docs, err := ws.Controller.ListDocuments(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]documents.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documents.ToResponse(d))
	}
	respond.OK(c, gin.H{"documents": out})
}

func (h *Handler) get(c *gin.Context) {
	ws, doc, ok := h.document(c)
	if !ok {
		return
	}
	resp := documents.ToResponse(doc)
	resp.ViewURL = h.viewURL(c, ws, doc)
	respond.OK(c, resp)
}

func (h *Handler) delete(c *gin.Context) {
	ws, doc, ok := h.document(c)
	if !ok {
		return
	}
	if err := ws.Controller.DeleteDocument(c.Request.Context(), doc.FileHandle, doc.ID, doc.Name); err != nil {
		writeError(c, err)
		return
	}
	if err := ws.QA.Forget(c.Request.Context(), doc.ID); err != nil {
		telemetry.Warn("library.qa_forget_failed", map[string]any{"documentId": doc.ID, "err": err.Error()})
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) file(c *gin.Context) {
	ws, doc, ok := h.document(c)
	if !ok {
		return
	}
	rc, err := ws.Controller.OpenFile(c.Request.Context(), doc.FileHandle)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", `inline; filename="`+strings.ReplaceAll(doc.Name, `"`, "")+`"`)
	c.Header("Content-Type", doc.ContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Warn("library.file_stream_failed", map[string]any{"documentId": doc.ID, "err": err.Error()})
	}
}

func (h *Handler) history(c *gin.Context) {
	ws, doc, ok := h.document(c)
	if !ok {
		return
	}
	records, err := ws.QA.Load(c.Request.Context(), qacache.DocumentRef{ID: doc.ID, Name: doc.Name})
	resp := historyResponse{DocumentID: doc.ID, Records: records}
	if err != nil {
		if !errors.Is(err, apperr.ErrSync) {
			writeError(c, err)
			return
		}
		resp.Warning = warn(c, err)
	}
	if resp.Records == nil {
		resp.Records = []qa.Record{}
	}
	respond.OK(c, resp)
}

func (h *Handler) ask(c *gin.Context) {
	ws, doc, ok := h.document(c)
	if !ok {
		return
	}
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	answer, err := ws.Controller.AskQuestion(c.Request.Context(), doc.Name, req.Question)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := askResponse{Answer: answer}
	rec, err := ws.QA.Append(c.Request.Context(), qacache.DocumentRef{ID: doc.ID, Name: doc.Name}, req.Question, answer)
	if err != nil {
		if !errors.Is(err, apperr.ErrPersistence) && !errors.Is(err, apperr.ErrValidation) {
			writeError(c, err)
			return
		}
		resp.Warning = warn(c, err)
	} else {
		c.Set("questionId", rec.ID)
	}
	resp.Record = rec
	respond.OK(c, resp)
}

func (h *Handler) books(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	books, err := ws.Controller.IndexedBooks(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if books == nil {
		books = []string{}
	}
	respond.OK(c, gin.H{"books": books})
}

func (h *Handler) document(c *gin.Context) (*Workspace, documents.Document, bool) {
	ws, ok := h.workspace(c)
	if !ok {
		return nil, documents.Document{}, false
	}
	id := strings.TrimSpace(c.Param("id"))
	doc, err := ws.Controller.GetDocument(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, documents.Document{}, false
	}
	c.Set("documentId", doc.ID)
	return ws, doc, true
}

func (h *Handler) viewURL(c *gin.Context, ws *Workspace, doc documents.Document) string {
	if h.opts.ServeFiles {
		return h.opts.PublicBaseURL + "/api/v1/documents/" + doc.ID + "/file"
	}
	u, err := ws.Controller.ViewURL(c.Request.Context(), doc.FileHandle)
	if err != nil {
		telemetry.Warn("library.view_url_failed", map[string]any{"documentId": doc.ID, "err": err.Error()})
		return ""
	}
	return u
}
