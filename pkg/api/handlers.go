package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/tcmartin/integrator/pkg/logging"
	"github.com/tcmartin/integrator/pkg/models"
	"github.com/tcmartin/integrator/pkg/registry"
	"github.com/tcmartin/integrator/pkg/storage"
)

// maxBodySize bounds request bodies
const maxBodySize = 10 << 20

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Storage string `json:"storage,omitempty"`
}

// pathVar returns the unescaped route variable name
func pathVar(r *http.Request, name string) string {
	value := mux.Vars(r)[name]
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, registry.ErrIntegrationNotFound),
		errors.Is(err, registry.ErrConnectionNotFound),
		errors.Is(err, registry.ErrActionNotFound),
		errors.Is(err, storage.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, registry.ErrInvalidDocument),
		errors.Is(err, storage.ErrMissingID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.WithContext(r.Context()).Error("request failed", logging.Err(err),
			logging.F("path", r.URL.Path))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v); err != nil {
		return err
	}
	return nil
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Storage: s.config.Storage.Type,
	})
}

// handleListIntegrations lists integrations, filtered by ?tag= and ?q=
func (s *Server) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	integrations, err := s.services.Integrations.List(r.Context(), registry.SearchFilters{
		Tag:   r.URL.Query().Get("tag"),
		Query: r.URL.Query().Get("q"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, integrations)
}

// handleCreateIntegration stores a new integration
func (s *Server) handleCreateIntegration(w http.ResponseWriter, r *http.Request) {
	var integration models.Integration
	if err := decodeBody(r, &integration); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.services.Integrations.Create(r.Context(), integration)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetIntegration returns an integration by id
func (s *Server) handleGetIntegration(w http.ResponseWriter, r *http.Request) {
	integration, err := s.services.Integrations.Get(r.Context(), pathVar(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, integration)
}

// handleUpdateIntegration replaces an integration
func (s *Server) handleUpdateIntegration(w http.ResponseWriter, r *http.Request) {
	var integration models.Integration
	if err := decodeBody(r, &integration); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := s.services.Integrations.Update(r.Context(), pathVar(r, "id"), integration)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteIntegration removes an integration
func (s *Server) handleDeleteIntegration(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Integrations.Delete(r.Context(), pathVar(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListConnections lists connections, filtered by ?tag= and ?q=
func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	connections, err := s.services.Connections.List(r.Context(), registry.SearchFilters{
		Tag:   r.URL.Query().Get("tag"),
		Query: r.URL.Query().Get("q"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, connections)
}

// handleCreateConnection registers a connection
func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var connection models.Connection
	if err := decodeBody(r, &connection); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.services.Connections.Create(r.Context(), connection)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetConnection returns a connection by id
func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	connection, err := s.services.Connections.Get(r.Context(), pathVar(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, connection)
}

// handleActionDescriptor resolves an action descriptor for the posted
// configured properties
func (s *Server) handleActionDescriptor(w http.ResponseWriter, r *http.Request) {
	properties := map[string]string{}
	if err := decodeBody(r, &properties); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	descriptor, err := s.services.Connections.ActionDescriptor(r.Context(), pathVar(r, "id"), pathVar(r, "actionId"), properties)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, descriptor)
}

// handleListDrafts lists stored drafts
func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.services.Drafts.ListDrafts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

// handleGetDraft returns the raw draft stored under key
func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	data, err := s.services.Drafts.GetDraft(r.Context(), pathVar(r, "key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handlePutDraft stores the request body as the draft under key
func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	key := pathVar(r, "key")

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !json.Valid(data) {
		http.Error(w, "Draft must be a JSON document", http.StatusBadRequest)
		return
	}

	action := models.ChangeUpdated
	if _, err := s.services.Drafts.GetDraft(r.Context(), key); errors.Is(err, storage.ErrNotFound) {
		action = models.ChangeCreated
	}

	if err := s.services.Drafts.SaveDraft(r.Context(), key, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.services.Hub.Publish(models.ChangeEvent{Kind: models.ChangeKindDraft, Action: action, ID: key})
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteDraft removes the draft stored under key
func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	key := pathVar(r, "key")
	if err := s.services.Drafts.DeleteDraft(r.Context(), key); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.services.Hub.Publish(models.ChangeEvent{Kind: models.ChangeKindDraft, Action: models.ChangeDeleted, ID: key})
	w.WriteHeader(http.StatusNoContent)
}
