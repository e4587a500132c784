package response

import (
	"encoding/json"
	"net/http"
)

// JSONResponseParameters is the standard response envelope used by every handler.
type JSONResponseParameters struct {
	Success bool   `json:"success"`
	Status  int    `json:"-"`
	Msg     string `json:"message,omitempty"`
	ErrMsg  string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes the envelope with the status carried in params.
func JSON(w http.ResponseWriter, params JSONResponseParameters) error {
	return JSONWithHeaders(w, params, nil)
}

// JSONWithHeaders writes the envelope plus any extra headers.
func JSONWithHeaders(w http.ResponseWriter, params JSONResponseParameters, headers http.Header) error {
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	body = append(body, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(params.Status)
	w.Write(body)

	return nil
}
