// Package respond writes the JSON envelope every API endpoint returns.
//
//	success: {"message": "...", "result": ...}
//	error:   {"message": "..."}               (+ "errors" for validation failures)
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type envelope struct {
	Message string              `json:"message"`
	Result  any                 `json:"result,omitempty"`
	Errors  []apierr.FieldError `json:"errors,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 envelope.
func OK(w http.ResponseWriter, msg string, result any) {
	JSON(w, http.StatusOK, envelope{Message: msg, Result: result})
}

// Created writes a 201 envelope.
func Created(w http.ResponseWriter, msg string, result any) {
	JSON(w, http.StatusCreated, envelope{Message: msg, Result: result})
}

// Error renders err. An *apierr.Error anywhere in the chain supplies the
// status and message; anything else becomes a 500 and is logged.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	e := apierr.As(err)
	if e == nil {
		e = apierr.Unavailable("Server error", err)
	}
	if e.Status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	JSON(w, e.Status, envelope{Message: e.Message, Errors: e.Fields})
}
