// Package viewtest provides a view.Renderer double for handler tests.
package viewtest

import (
	"encoding/json"
	"net/http"
)

// Rendered is the body Echo writes.
type Rendered struct {
	View   string          `json:"view"`
	Locals json.RawMessage `json:"locals"`
}

// Echo renders nothing. It writes its inputs back as JSON so tests can assert
// on the view name and payload.
type Echo struct{}

func (Echo) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) error {
	body, err := json.Marshal(struct {
		View   string `json:"view"`
		Locals any    `json:"locals"`
	}{View: name, Locals: data})
	if err != nil {
		return err
	}
	if status <= 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// Decode parses a body written by Echo.
func Decode(body []byte) (Rendered, error) {
	var out Rendered
	err := json.Unmarshal(body, &out)
	return out, err
}
