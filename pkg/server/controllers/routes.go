/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	mw "github.com/notesync/notesync/pkg/server/middleware"
	"github.com/notesync/notesync/pkg/store/wire"
	"github.com/pkg/errors"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	Routes      []Route
	// Limiter rate limits routes that ask for it. Nil disables limiting.
	Limiter *mw.RateLimiter
}

const (
	collectionPattern = "/v1/collections/{collection:[A-Za-z0-9_-]+}"
	docPattern        = collectionPattern + "/docs/{id}"
)

// NewRoutes returns the routes of the store server
func NewRoutes(c *Controllers) []Route {
	return []Route{
		{"GET", "/health", c.Health.Index, false},
		{"POST", collectionPattern + "/query", c.Collections.Query, true},
		{"GET", collectionPattern + "/subscribe", c.Collections.Subscribe, true},
		{"POST", collectionPattern + "/docs", c.Collections.Create, true},
		{"GET", docPattern, c.Collections.Show, true},
		{"PATCH", docPattern, c.Collections.Update, true},
		{"DELETE", docPattern, c.Collections.Delete, true},
	}
}

func registerRoutes(router *mux.Router, limiter *mw.RateLimiter, routes []Route) {
	for _, route := range routes {
		router.
			Handle(route.Pattern, mw.ApplyLimit(limiter, route.Handler, route.RateLimit)).
			Methods(route.Method)
	}
}

// NewRouter creates and returns a new router
func NewRouter(rc RouteConfig) (http.Handler, error) {
	if rc.Controllers == nil {
		return nil, errors.New("no controllers were provided")
	}

	router := mux.NewRouter().StrictSlash(true)
	registerRoutes(router, rc.Limiter, rc.Routes)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, wire.ErrorResponse{Error: "route not found"})
	})

	return mw.Logging(router), nil
}
