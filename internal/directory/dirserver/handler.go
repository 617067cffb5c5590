// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dirserver serves the directory REST API over any directory.Gateway.
// It exists for local development and tests of the HTTP gateway; production
// deployments talk to the real directory service.
package dirserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/jeranaias/classdesk/internal/directory"
)

// maxBodySize bounds PUT bodies.
const maxBodySize = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type handler struct {
	gw       directory.Gateway
	token    string
	validate *validator.Validate
}

// NewHandler returns the API router over gw. When token is non-empty every
// request must carry it as a bearer token.
func NewHandler(gw directory.Gateway, token string) http.Handler {
	v := validator.New()
	// Report JSON names in validation messages.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	h := &handler{gw: gw, token: strings.TrimSpace(token), validate: v}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	if h.token != "" {
		r.Use(h.requireToken)
	}
	r.HandleFunc("/parents/cpf/{id}", h.fetch(directory.RoleParent)).Methods(http.MethodGet)
	r.HandleFunc("/professors/cpf/{id}", h.fetch(directory.RoleProfessor)).Methods(http.MethodGet)
	r.HandleFunc("/students/cpf/{id}", h.fetch(directory.RoleStudent)).Methods(http.MethodGet)
	r.HandleFunc("/users", h.list).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	return r
}

func (h *handler) fetch(role directory.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := directory.Normalize(mux.Vars(r)["id"])
		rec, err := directory.FetchByRole(r.Context(), h.gw, role, id)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.gw.FetchAll(r.Context())
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	id := directory.Normalize(mux.Vars(r)["id"])

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	// Identifier and role are not part of Patch, so sending them is an error.
	dec.DisallowUnknownFields()
	var patch directory.Patch
	if err := dec.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", validationMessage(err))
		return
	}

	rec, err := h.gw.Update(r.Context(), id, patch)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (h *handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimSpace(auth[len("Bearer "):]) != h.token {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if id := mux.Vars(r)["id"]; id != "" {
			path = strings.TrimSuffix(path, id) + directory.MaskIdentifier(id)
		}
		log.Printf("dirserver: %s %s [%s]", r.Method, path, r.Header.Get("X-Request-ID"))
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// RESPONSES
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("dirserver: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

func writeGatewayError(w http.ResponseWriter, err error) {
	var te *directory.TransportError
	switch {
	case directory.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.As(err, &te) && te.Status >= 400:
		writeError(w, te.Status, "upstream_error", te.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "email":
			parts = append(parts, fe.Field()+" must be a valid email address")
		case "min":
			parts = append(parts, fe.Field()+" must not be empty")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "numeric":
			parts = append(parts, fe.Field()+" must contain digits only")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
