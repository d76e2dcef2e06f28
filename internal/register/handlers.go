package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/toko-register/internal/common"
)

// QuoteRequest is the body of POST /api/v1/quotes.
type QuoteRequest struct {
	SKUs []string `json:"skus" validate:"required,dive,required,max=64"`
}

// Handler exposes register endpoints.
type Handler struct {
	Svc *Service
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Routes mounts the register endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/quotes", h.Quote)
	r.Get("/items/{sku}", h.Item)
	r.Get("/rules", h.Rules)
}

// Quote handles POST /api/v1/quotes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "register service not configured", nil)
		return
	}
	var req QuoteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	quote, err := h.Svc.Quote(r.Context(), req.SKUs)
	if err != nil {
		if !common.IsAppError(err) {
			h.Svc.Logger.Error().Err(err).Msg("quote basket")
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// Item handles GET /api/v1/items/{sku}.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "register service not configured", nil)
		return
	}
	item, err := h.Svc.Item(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Rules handles GET /api/v1/rules.
func (h *Handler) Rules(w http.ResponseWriter, _ *http.Request) {
	rules := h.Svc.Rules()
	if rules == nil {
		rules = []string{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rules})
}

func decodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return common.NewAppError("BAD_REQUEST", "invalid request body", http.StatusBadRequest, err).
			WithDetails(map[string]any{"error": err.Error()})
	}
	if err := validate.Struct(dest); err != nil {
		details := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[fe.Namespace()] = validationMessage(fe)
			}
		}
		return common.NewAppError("VALIDATION_FAILED", "validation failed", http.StatusBadRequest, err).WithDetails(details)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}
