package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"insightpaper/internal/apperr"
	"insightpaper/internal/service"
)

// respondWithError writes {"error": cause} with the status of err's kind.
// Internal errors are logged with their detail; clients only ever see
// unexpected_error.
func respondWithError(w http.ResponseWriter, logMsg string, err error) {
	ae := apperr.From(err)
	status := ae.Kind.Status()
	if ae.Kind == apperr.KindInternal {
		if logMsg == "" {
			logMsg = "Internal server error"
		}
		log.Printf("%s: %v", logMsg, err)
	}
	writeJSON(w, status, map[string]string{"error": apperr.Cause(err)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeResult wraps payload in the {"result": ...} envelope.
func writeResult(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, map[string]any{"result": payload})
}

// writeDelivery answers a committed mutation that emailed recipients. Any
// failed send turns the answer into a 400 email_not_sent envelope that
// still carries the committed result and the per-recipient report.
func writeDelivery(w http.ResponseWriter, status int, payload map[string]any, report service.DeliveryReport) {
	payload["allSent"] = report.AllSent
	payload["delivery"] = report
	if !report.AllSent {
		log.Printf("Notification delivery incomplete: %d sent, failed %v", report.Sent, report.Failed)
		payload["error"] = apperr.CodeEmailNotSent
		status = http.StatusBadRequest
	}
	writeJSON(w, status, payload)
}

// decodeJSON reads the request body into out. An empty body leaves out
// untouched. A body sent as anything but application/json is refused, so
// cross-site form posts never reach a handler.
func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return apperr.Validation(apperr.CodeUnsupportedMedia)
	}
	err = json.NewDecoder(r.Body).Decode(out)
	if err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation(apperr.CodeInvalidBody)
	}
	return nil
}

// pathID parses a positive integer URL parameter; anything else is
// reported as <name>_invalid.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name + "_invalid")
	}
	return id, nil
}

// queryID parses an optional integer query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperr.Validation(name + "_invalid")
	}
	return &id, nil
}
