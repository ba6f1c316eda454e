package employee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	employeeModel "github.com/zhouzirui/staffbook/backend/internal/model/employee"
	employeeService "github.com/zhouzirui/staffbook/backend/internal/service/employee"
	"github.com/zhouzirui/staffbook/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Service is the subset of the employee service the handler needs.
type Service interface {
	Create(ctx context.Context, record employeeModel.Employee) (employeeModel.Employee, error)
	List(ctx context.Context) ([]employeeModel.Employee, error)
	Get(ctx context.Context, id int) (employeeModel.Employee, error)
	Update(ctx context.Context, id int, record employeeModel.Employee) (employeeModel.Employee, error)
	Delete(ctx context.Context, id int) error
}

// Handler serves the /employee resource.
type Handler struct {
	svc Service
}

// New creates the employee handler.
func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the CRUD routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/employee", h.handleCreate)
	r.Get("/employee", h.handleList)
	r.Get("/employee/{id}", h.handleGet)
	r.Put("/employee/{id}", h.handleUpdate)
	r.Delete("/employee/{id}", h.handleDelete)
}

type createResponse struct {
	Message  string                 `json:"message"`
	Employee employeeModel.Employee `json:"employee"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	record, err := decodePayload(w, r)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	created, err := h.svc.Create(r.Context(), record)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, createResponse{
		Message:  "Employee added successfully",
		Employee: created,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.List(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, records)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	record, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, record)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	record, err := decodePayload(w, r)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if _, err := h.svc.Update(r.Context(), id, record); err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Employee updated successfully")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Employee deleted successfully")
}

// respondErr maps service and validation errors onto status codes.
func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var validationErr *employeeModel.ValidationError
	var parseErr *employeeModel.ParseError

	switch {
	case errors.As(err, &validationErr):
		utils.RespondError(w, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.Is(err, employeeService.ErrConflict):
		utils.RespondError(w, http.StatusBadRequest, "Employee ID already exists")
	case errors.Is(err, employeeService.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "Employee not found")
	case errors.As(err, &parseErr):
		log.Printf("[employee] %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "employee data file is malformed")
	case errors.Is(err, context.Canceled):
		log.Printf("[employee] request cancelled: %v", err)
	default:
		log.Printf("[employee] %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func pathID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &employeeModel.ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not a valid integer", raw)}
	}
	return id, nil
}

func decodePayload(w http.ResponseWriter, r *http.Request) (employeeModel.Employee, error) {
	var payload employeeModel.Payload

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(&payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			return employeeModel.Employee{}, &employeeModel.ValidationError{
				Field:  typeErr.Field,
				Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}
		case errors.As(err, &maxErr):
			return employeeModel.Employee{}, &employeeModel.ValidationError{Reason: "request body too large"}
		default:
			return employeeModel.Employee{}, &employeeModel.ValidationError{Reason: "invalid request body"}
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return employeeModel.Employee{}, &employeeModel.ValidationError{Reason: "unexpected data after JSON body"}
	}

	return payload.Validate()
}
