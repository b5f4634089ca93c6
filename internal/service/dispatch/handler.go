package dispatch

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// response — выходной конверт API.
type response struct {
	OK     bool      `json:"ok"`
	Result any       `json:"result,omitempty"`
	Error  *APIError `json:"error,omitempty"`
}

// Handler возвращает HTTP-обработчик для POST /v1/dispatch.
func (d *Dispatcher) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeResponse(w, http.StatusMethodNotAllowed, response{
				OK: false,
				Error: &APIError{
					Code:    "method_not_allowed",
					Message: "only POST is supported",
				},
			})
			return
		}

		var envelope Envelope
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&envelope); err != nil {
			writeResponse(w, http.StatusBadRequest, response{
				OK:    false,
				Error: errMalformedPayload(err),
			})
			return
		}

		result, err := d.Dispatch(envelope)
		if err != nil {
			apiErr := toAPIError(err)
			if apiErr.HTTPStatus() >= http.StatusInternalServerError {
				d.logger.WithError(err).WithField("type", envelope.Type).Error("dispatch failed")
			} else {
				d.logger.WithError(err).WithField("type", envelope.Type).Debug("dispatch rejected")
			}
			writeResponse(w, apiErr.HTTPStatus(), response{OK: false, Error: apiErr})
			return
		}

		writeResponse(w, http.StatusOK, response{OK: true, Result: result})
	})
}

func writeResponse(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to encode dispatch response")
	}
}
