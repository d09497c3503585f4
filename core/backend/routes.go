package backend

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/rentdesk/core"
	"github.com/relabs-tech/rentdesk/core/access"
	"github.com/relabs-tech/rentdesk/core/logger"
)

// maxBodySize limits request bodies
const maxBodySize = 4 << 20

// envelope is {"data": ...} on success and {"error": "..."} on failure
type envelope map[string]interface{}

func dataEnvelope(data interface{}) envelope {
	return envelope{"data": data}
}

func errorEnvelope(message string) envelope {
	return envelope{"error": message}
}

// handleRoutes installs the HTTP routes. Every path which is not a builtin
// route goes through Do.
func (b *Backend) handleRoutes(router *mux.Router) {
	logger.Default().Debugln("backend: handle routes")
	b.handleCORS()
	b.handleCompression()
	access.HandleSessionRoute(router)
	b.handleVersion(router)
	b.handleStatistics(router)

	logger.Default().Debugln("  handle catch-all route: / GET,POST,PUT,PATCH,DELETE")
	// OPTIONS must match a route, otherwise the CORS middleware never sees preflight requests
	router.PathPrefix("/").HandlerFunc(b.serveHTTP).Methods(http.MethodOptions,
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)
}

func (b *Backend) serveHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rlog := logger.FromContext(ctx)
	rlog.Debugln("called route for", r.URL, r.Method)

	verb, ok := core.VerbFromMethod(r.Method)
	if !ok {
		writeJSON(w, http.StatusMethodNotAllowed, errorEnvelope("method not allowed"))
		return
	}

	req := Request{
		Verb:    verb,
		Path:    r.URL.Path,
		Session: access.SessionFromContext(ctx),
	}
	if r.URL.RawQuery != "" {
		req.Path += "?" + r.URL.RawQuery
	}
	if verb == core.VerbCreate || verb == core.VerbReplace || verb == core.VerbUpdate {
		payload, err := readPayload(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorEnvelope(err.Error()))
			return
		}
		req.Payload = payload
	}

	result, err := b.Do(ctx, req)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			writeJSON(w, e.Status, errorEnvelope(e.Error()))
			return
		}
		rlog.WithError(err).Errorln("Error 4701: cannot serve", r.Method, r.URL)
		writeJSON(w, http.StatusInternalServerError, errorEnvelope("Error 4701"))
		return
	}

	status := http.StatusOK
	if verb == core.VerbCreate {
		status = http.StatusCreated
	}
	writeJSON(w, status, dataEnvelope(result))
}

// readPayload decodes a JSON object body. An empty body is a nil payload.
func readPayload(r *http.Request) (map[string]interface{}, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.New("request body must be a JSON object")
	}
	return payload, nil
}

func writeJSON(w http.ResponseWriter, status int, response envelope) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		status = http.StatusInternalServerError
		jsonData = []byte(`{"error":"Error 4702"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(jsonData)
}
