package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/denissonlm/AcoCameras/internal/fleet"
)

// maxJSONBody bounds request bodies other than image uploads.
const maxJSONBody = 1 << 20

var kindStatus = map[fleet.Kind]int{
	fleet.KindValidation:   http.StatusBadRequest,
	fleet.KindPolicy:       http.StatusForbidden,
	fleet.KindReference:    http.StatusConflict,
	fleet.KindNotFound:     http.StatusNotFound,
	fleet.KindConfirmation: http.StatusPreconditionRequired,
	fleet.KindTransport:    http.StatusBadGateway,
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    fleet.Kind `json:"kind"`
	Message string     `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

// writeError converts err at the boundary into the error body. what names the
// attempted operation for unclassified failures.
func writeError(w http.ResponseWriter, err error, what string) {
	fe := fleet.Classify(err, what)
	code, ok := kindStatus[fe.Kind]
	if !ok {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, errorBody{Error: errorDetail{Kind: fe.Kind, Message: fe.Error()}})
}

func validationError(w http.ResponseWriter, msg string) {
	writeError(w, fleet.Validation(msg), "")
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fleet.Validation("Corpo da requisição inválido: " + err.Error())
}

// idParam parses the named URL parameter as a positive id.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fleet.Validation("Identificador inválido: " + chi.URLParam(r, name))
	}
	return id, nil
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}
