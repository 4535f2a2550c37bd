package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes data as JSON with the given status. The body is encoded
// before any header is written so an encoding failure still yields a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondProblem(w, ProblemInternal, "failed to encode response", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// Problem is one kind of catalog failure as reported to clients in an
// RFC 7807 body. Type is a relative URI naming the failure; viewers switch
// on it rather than on the status code.
type Problem struct {
	Type   string
	Title  string
	Status int
}

var (
	ProblemBadRequest   = Problem{"/problems/bad-request", "Malformed request", http.StatusBadRequest}
	ProblemValidation   = Problem{"/problems/validation", "Invalid input", http.StatusBadRequest}
	ProblemInvalidPath  = Problem{"/problems/invalid-path", "Invalid category path", http.StatusBadRequest}
	ProblemUnauthorized = Problem{"/problems/unauthorized", "Admin login required", http.StatusUnauthorized}
	ProblemNotFound     = Problem{"/problems/not-found", "Not in catalog", http.StatusNotFound}
	ProblemTooLarge     = Problem{"/problems/too-large", "Upload too large", http.StatusRequestEntityTooLarge}
	ProblemRenderFailed = Problem{"/problems/render-failed", "Document could not be rendered", http.StatusUnprocessableEntity}
	ProblemInternal     = Problem{"/problems/internal", "Internal error", http.StatusInternalServerError}
)

// problemBody is the wire form. Extra members sit next to the standard ones.
type problemBody struct {
	Problem
	Detail string
	Extra  map[string]interface{}
}

func (p problemBody) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(p.Extra)+4)
	for k, v := range p.Extra {
		m[k] = v
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	return json.Marshal(m)
}

// RespondProblem writes p as application/problem+json. extra may be nil.
func RespondProblem(w http.ResponseWriter, p Problem, detail string, extra map[string]interface{}) {
	payload, err := json.Marshal(problemBody{Problem: p, Detail: detail, Extra: extra})
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	w.Write(payload)
}

// RespondError writes the catalog problem that goes with status.
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondProblem(w, problemForStatus(status), detail, nil)
}

func problemForStatus(status int) Problem {
	switch status {
	case http.StatusBadRequest:
		return ProblemBadRequest
	case http.StatusUnauthorized:
		return ProblemUnauthorized
	case http.StatusNotFound:
		return ProblemNotFound
	case http.StatusRequestEntityTooLarge:
		return ProblemTooLarge
	case http.StatusUnprocessableEntity:
		return ProblemRenderFailed
	default:
		return ProblemInternal
	}
}
