package http

import (
	"net/http"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name string    `json:"name"`
	Kind core.Kind `json:"kind"`
}

type categoryResponse struct {
	ID   int64     `json:"id"`
	Name string    `json:"name"`
	Kind core.Kind `json:"kind"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Kind: c.Kind}
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := s.deps.Ledger.CreateCategory(r.Context(), UserID(r.Context()), core.Category{
		Name: req.Name,
		Kind: req.Kind,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "category created", toCategoryResponse(created))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Ledger.ListCategories(r.Context(), UserID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, "categories", out)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	cat, err := s.deps.Ledger.GetCategory(r.Context(), UserID(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "category", toCategoryResponse(cat))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	updated, err := s.deps.Ledger.UpdateCategory(r.Context(), UserID(r.Context()), core.Category{
		ID:   id,
		Name: req.Name,
		Kind: req.Kind,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "category updated", toCategoryResponse(updated))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.deps.Ledger.DeleteCategory(r.Context(), UserID(r.Context()), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "category deleted", nil)
}
