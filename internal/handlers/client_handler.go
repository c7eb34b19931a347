package handlers

import (
	"net/http"
	"sort"
	"strings"

	"delivery-backend/internal/models"
	"delivery-backend/internal/services"
	"delivery-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ClientHandler struct {
	Workspace *services.Workspace
	Catalog   *services.CatalogService
}

func NewClientHandler(ws *services.Workspace, catalog *services.CatalogService) *ClientHandler {
	return &ClientHandler{Workspace: ws, Catalog: catalog}
}

// ListClients returns clients sorted by name, filtered by ?q= on name or phone
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	clients := []models.Client{}
	for _, c := range h.Workspace.View().Clients {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Phone, q) {
			clients = append(clients, c)
		}
	}
	sort.SliceStable(clients, func(i, j int) bool {
		return strings.ToLower(clients[i].Name) < strings.ToLower(clients[j].Name)
	})
	utils.JSON(w, http.StatusOK, clients)
}

func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, ok := h.Workspace.View().ClientByID(id)
	if !ok {
		writeError(w, &models.NotFoundError{Entity: "client", ID: id})
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var client models.Client
	_, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		next, c, err := h.Catalog.RegisterClient(s, req)
		client = c
		return next, err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var client models.Client
	_, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		next, c, err := h.Catalog.UpdateClient(s, mux.Vars(r)["id"], req)
		client = c
		return next, err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, client)
}

// DeleteClient needs ?confirm=true. Orders of the client are kept.
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	_, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		return h.Catalog.DeleteClient(s, mux.Vars(r)["id"], services.AutoConfirm(confirmed(r)))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
