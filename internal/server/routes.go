package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/passagedb/passage/internal/errdefs"
	"github.com/passagedb/passage/internal/extract"
	"github.com/passagedb/passage/internal/registry"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errdefs.HTTPStatus(err), errorResponse{
		Error: errorBody{Kind: errdefs.Kind(err), Message: err.Error()},
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "passage",
		"message": "document Q&A API",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	infos, err := s.registry.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	total := 0
	for _, info := range infos {
		total += info.TotalChunks
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"generation_target":  s.cfg.GenerationTarget,
		"default_collection": s.cfg.DefaultCollection,
		"total_chunks":       total,
		"collections":        infos,
	})
}

// handleUpload ingests a multipart file into a collection.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Cap the request body; the extract gate re-checks the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, errdefs.Newf(errdefs.ErrFileTooLarge,
				"upload exceeds %d byte limit", s.cfg.MaxUploadBytes))
			return
		}
		writeError(w, errdefs.Newf(errdefs.ErrInvalidArgument, "missing file field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, errdefs.Newf(errdefs.ErrFileTooLarge,
				"upload exceeds %d byte limit", s.cfg.MaxUploadBytes))
			return
		}
		writeError(w, errdefs.Newf(errdefs.ErrInvalidArgument, "reading upload: %v", err))
		return
	}

	text, err := extract.Text(header.Filename, data, s.cfg.MaxUploadBytes)
	if err != nil {
		writeError(w, err)
		return
	}

	collection := r.FormValue("collection")
	result, err := s.ingestor.Ingest(r.Context(), collection, header.Filename, text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "document ingested",
		"filename":       header.Filename,
		"document_id":    result.DocumentID,
		"chunks_created": result.ChunkCount,
		"collection":     result.Collection,
	})
}

type queryRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
	Collection string `json:"collection"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errdefs.Newf(errdefs.ErrInvalidArgument, "invalid request body: %v", err))
		return
	}

	result, err := s.querier.Query(r.Context(), req.Collection, strings.TrimSpace(req.Query), req.NumResults)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleStats reports totals across all collections, or for one when the
// collection query parameter is set.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("collection"); name != "" {
		info, err := s.registry.Info(r.Context(), name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
		return
	}

	infos, err := s.registry.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var chunks, documents int
	for _, info := range infos {
		chunks += info.TotalChunks
		documents += info.TotalDocuments
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_chunks":    chunks,
		"total_documents": documents,
		"collections":     infos,
	})
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	infos, err := s.registry.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if infos == nil {
		infos = []registry.CollectionInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": infos})
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	info, err := s.registry.Info(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.registry.Delete(name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.registry.Exists(name) {
		writeError(w, errdefs.Newf(errdefs.ErrNotFound, "collection %q not found", name))
		return
	}
	st, err := s.registry.GetOrCreate(name)
	if err != nil {
		writeError(w, err)
		return
	}

	docs, err := st.ListDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleClearDocuments empties a collection without deleting it; the
// collection keeps its name and dimension.
func (s *Server) handleClearDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.registry.Exists(name) {
		writeError(w, errdefs.Newf(errdefs.ErrNotFound, "collection %q not found", name))
		return
	}
	st, err := s.registry.GetOrCreate(name)
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := st.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := st.DeleteAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":           "all documents deleted",
		"collection":        name,
		"documents_removed": stats.TotalDocuments,
		"chunks_removed":    stats.TotalChunks,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.registry.Exists(name) {
		writeError(w, errdefs.Newf(errdefs.ErrNotFound, "collection %q not found", name))
		return
	}
	st, err := s.registry.GetOrCreate(name)
	if err != nil {
		writeError(w, err)
		return
	}

	info, chunks, err := st.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document": info,
		"chunks":   chunks,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.registry.Exists(name) {
		writeError(w, errdefs.Newf(errdefs.ErrNotFound, "collection %q not found", name))
		return
	}
	st, err := s.registry.GetOrCreate(name)
	if err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	removed, err := st.DeleteDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id":    id,
		"chunks_removed": removed,
	})
}

func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.registry.Exists(name) {
		writeError(w, errdefs.Newf(errdefs.ErrNotFound, "collection %q not found", name))
		return
	}
	st, err := s.registry.GetOrCreate(name)
	if err != nil {
		writeError(w, err)
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	chunks, err := st.ListChunks(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := st.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chunks":   chunks,
		"limit":    limit,
		"offset":   offset,
		"total":    stats.TotalChunks,
		"has_more": offset+len(chunks) < stats.TotalChunks,
	})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
