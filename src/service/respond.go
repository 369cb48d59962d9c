package service

import (
	"encoding/json"
	"net/http"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/sirupsen/logrus"
)

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status code: missing keys are 404, anything else
// is 500.
func WriteError(w http.ResponseWriter, logger *logrus.Entry, err error) {
	status := http.StatusInternalServerError
	if common.IsStore(err, common.KeyNotFound) {
		status = http.StatusNotFound
	} else {
		logger.WithError(err).Error("Handling request")
	}
	http.Error(w, err.Error(), status)
}

// BadRequest ...
func BadRequest(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
}
