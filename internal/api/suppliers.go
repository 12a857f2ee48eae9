package api

import (
	"database/sql"
	"net/http"

	"github.com/squaremart/stockd/internal/model"
	"github.com/squaremart/stockd/internal/store"
)

// SuppliersHandler handles supplier endpoints.
type SuppliersHandler struct {
	DB *sql.DB
}

type createSupplierRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// List handles GET /api/suppliers.
func (h *SuppliersHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := store.ListSuppliers(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list suppliers")
		return
	}
	if suppliers == nil {
		suppliers = []model.Supplier{}
	}
	jsonResponse(w, http.StatusOK, suppliers)
}

// Create handles POST /api/suppliers.
func (h *SuppliersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSupplierRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name is required")
		return
	}

	supplier, err := store.CreateSupplier(r.Context(), h.DB, req.Name, req.Contact)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, supplier)
}
