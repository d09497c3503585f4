// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/rentdesk/core/access"
	"github.com/relabs-tech/rentdesk/core/logger"
)

// resourceStatistics represents information about a collection
type resourceStatistics struct {
	Resource     string  `json:"resource"`
	Count        int64   `json:"count"`
	SizeMB       float64 `json:"size_mb"`
	AverageSizeB float64 `json:"average_size_b"`
}

// statisticsDetails represents information about the backend resources
type statisticsDetails struct {
	Collections []resourceStatistics `json:"collections"`
	Singletons  []resourceStatistics `json:"singletons"`
	Relations   []resourceStatistics `json:"relations"`
}

func (b *Backend) handleStatistics(router *mux.Router) {
	logger.Default().Debugln("statistics")
	logger.Default().Debugln("  handle statistics route: /rentdesk/statistics GET")
	router.HandleFunc("/rentdesk/statistics", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		b.statisticsWithAuth(w, r)
	}).Methods(http.MethodOptions, http.MethodGet)
}

func (b *Backend) statisticsWithAuth(w http.ResponseWriter, r *http.Request) {
	session := access.SessionFromContext(r.Context())
	if session == nil || !session.HasRole("admin") {
		http.Error(w, "not authorized", http.StatusUnauthorized)
		return
	}
	s, err := b.Statistics(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorln("Error 4028: cannot read tree")
		http.Error(w, "Error 4028", http.StatusInternalServerError)
		return
	}

	jsonData, _ := json.Marshal(s)
	etag := bytesToEtag(jsonData)
	w.Header().Set("Etag", etag)
	if ifNoneMatchFound(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(jsonData)
}

// Statistics counts the records of every collection in the tree. Sizes are
// the sizes of the JSON encoded records.
func (b *Backend) Statistics(ctx context.Context) (*statisticsDetails, error) {
	root, _, err := b.tree.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	collections, _ := root.(map[string]interface{})
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	// sorted, so that the ETag is unchanged regardless of map order
	sort.Strings(names)

	s := &statisticsDetails{
		Collections: []resourceStatistics{},
		Singletons:  []resourceStatistics{},
		Relations:   []resourceStatistics{},
	}
	for _, name := range names {
		children, _ := collections[name].(map[string]interface{})
		var size int64
		for _, child := range children {
			raw, _ := json.Marshal(child)
			size += int64(len(raw))
		}
		stats := resourceStatistics{
			Resource: name,
			Count:    int64(len(children)),
			SizeMB:   float64(size) / 1024. / 1024.,
		}
		if stats.Count > 0 {
			stats.AverageSizeB = float64(size / stats.Count)
		}
		switch {
		case b.singletons[name] != nil:
			s.Singletons = append(s.Singletons, stats)
		case b.relations[name] != nil:
			s.Relations = append(s.Relations, stats)
		default:
			s.Collections = append(s.Collections, stats)
		}
	}
	return s, nil
}

func bytesToEtag(b []byte) string {
	hash := md5.Sum(b)
	return "\"" + hex.EncodeToString(hash[:]) + "\""
}

// ifNoneMatchFound returns true if etag is found in ifNoneMatch. The format of ifNoneMatch is one
// of the following:
// If-None-Match: "<etag_value>"
// If-None-Match: "<etag_value>", "<etag_value>", …
// If-None-Match: *
func ifNoneMatchFound(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "*" {
		return true
	}
	for _, m := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimSpace(m) == etag {
			return true
		}
	}
	return false
}
