package net

import (
	// Std
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	// Mapconfig
	"github.com/momentum-xyz/mapconfig/internal/auth"
	"github.com/momentum-xyz/mapconfig/internal/logger"
	"github.com/momentum-xyz/mapconfig/internal/registry"
	"github.com/momentum-xyz/mapconfig/internal/socket"
	"github.com/momentum-xyz/mapconfig/pkg/worldsettings"

	// Third-Party
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/pkg/errors"
)

const (
	maxOverrideSize = 64 << 10
	readTimeout     = 10 * time.Second
)

type HealthStatus struct {
	Status string `json:"status"`
}

type ReadyStatus struct {
	Worlds     int    `json:"worlds"`
	Database   string `json:"database"`
	MessageBus string `json:"messageBus"`
}

// OK reports whether every configured dependency is usable.
func (s ReadyStatus) OK() bool {
	return s.Database != "FAIL" && s.MessageBus != "FAIL"
}

type WorldSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	Order       int    `json:"order"`
}

type ReloadStatus struct {
	Revision uuid.UUID `json:"revision"`
	Loaded   int       `json:"loaded"`
	Failed   []string  `json:"failed"`
}

// Backend is the part of the service the HTTP layer drives.
type Backend interface {
	UpdateWorld(name string, document []byte) (*worldsettings.WorldSettings, error)
	ResetWorld(name string) (ReloadStatus, error)
	Reload() (ReloadStatus, error)
	Ready() ReadyStatus
}

type Networking struct {
	registry *registry.Registry
	hub      *socket.Hub
	backend  Backend
	verifier auth.TokenVerifier
	mux      *http.ServeMux
	server   *http.Server
}

var log = logger.L()

// NewNetworking registers all routes. A nil verifier disables the admin API.
func NewNetworking(reg *registry.Registry, hub *socket.Hub, backend Backend, verifier auth.TokenVerifier) *Networking {
	n := &Networking{
		registry: reg,
		hub:      hub,
		backend:  backend,
		verifier: verifier,
		mux:      http.NewServeMux(),
	}

	n.mux.HandleFunc("GET /health", HealthCheck)
	n.mux.HandleFunc("GET /ready", n.ReadyCheck)
	n.mux.Handle("GET /worlds", gzhttp.GzipHandler(http.HandlerFunc(n.listWorlds)))
	n.mux.Handle("GET /worlds/{name}/settings.json", gzhttp.GzipHandler(http.HandlerFunc(n.worldSettings)))
	n.mux.Handle("GET /ws", hub)
	if verifier != nil {
		n.mux.HandleFunc("PUT /admin/worlds/{name}", n.requireAdmin(n.updateWorld))
		n.mux.HandleFunc("DELETE /admin/worlds/{name}", n.requireAdmin(n.resetWorld))
		n.mux.HandleFunc("POST /admin/reload", n.requireAdmin(n.reload))
	}

	return n
}

func (n *Networking) Handler() http.Handler {
	return n.mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.WithMessage(err, "failed to marshal data"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Debug(errors.WithMessage(err, "Networking: failed to write data"))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(fmt.Sprintf("{\"error\": %q}", err.Error())))
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{Status: "OK"})
}

func (n *Networking) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	status := n.backend.Ready()
	if !status.OK() {
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (n *Networking) listWorlds(w http.ResponseWriter, r *http.Request) {
	worlds := n.registry.List()
	out := make([]WorldSummary, 0, len(worlds))
	for _, world := range worlds {
		out = append(out, WorldSummary{
			Name:        world.Name(),
			DisplayName: world.DisplayName(),
			Type:        world.Type(),
			Order:       world.Order(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (n *Networking) worldSettings(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	world, ok := n.registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, errors.WithMessagef(registry.ErrUnknownWorld, "%q", name))
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, world)
}

func (n *Networking) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err == nil {
			var claims map[string]interface{}
			claims, err = n.verifier.Verify(token)
			if err == nil {
				log.Infof("Networking: admin request %s %s by %q", r.Method, r.URL.Path, auth.Subject(claims))
				next(w, r)
				return
			}
		}
		log.Warn(errors.WithMessagef(err, "Networking: rejected admin request %s %s", r.Method, r.URL.Path))
		writeError(w, http.StatusUnauthorized, auth.ErrUnauthorized)
	}
}

func (n *Networking) updateWorld(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxOverrideSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.WithMessage(err, "failed to read body"))
		return
	}
	if len(body) > maxOverrideSize {
		writeError(w, http.StatusRequestEntityTooLarge, errors.New("override document too large"))
		return
	}

	world, err := n.backend.UpdateWorld(name, body)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, world)
	case errors.Is(err, registry.ErrUnknownWorld):
		writeError(w, http.StatusNotFound, err)
	case worldsettings.IsInvalid(err), worldsettings.IsMissing(err):
		writeError(w, http.StatusBadRequest, err)
	default:
		log.Error(errors.WithMessagef(err, "Networking: failed to update world %s", name))
		writeError(w, http.StatusInternalServerError, err)
	}
}

// resetWorld drops the stored override so the file settings apply again.
func (n *Networking) resetWorld(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := n.registry.Get(name); !ok {
		writeError(w, http.StatusNotFound, errors.WithMessagef(registry.ErrUnknownWorld, "%q", name))
		return
	}
	status, err := n.backend.ResetWorld(name)
	if err != nil {
		log.Error(errors.WithMessagef(err, "Networking: failed to reset world %s", name))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (n *Networking) reload(w http.ResponseWriter, r *http.Request) {
	status, err := n.backend.Reload()
	if err != nil {
		log.Error(errors.WithMessage(err, "Networking: reload failed"))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (n *Networking) ListenAndServe(address, port string) error {
	log.Info("ListenAndServe: ", address+":"+port)
	n.server = &http.Server{
		Addr:              address + ":" + port,
		Handler:           n.mux,
		ReadHeaderTimeout: readTimeout,
	}
	if err := n.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (n *Networking) Shutdown(ctx context.Context) error {
	if n.server == nil {
		return nil
	}
	return n.server.Shutdown(ctx)
}
