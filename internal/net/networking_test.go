package net

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/momentum-xyz/mapconfig/internal/auth"
	"github.com/momentum-xyz/mapconfig/internal/registry"
	"github.com/momentum-xyz/mapconfig/internal/socket"
	"github.com/momentum-xyz/mapconfig/pkg/worldsettings"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var secret = []byte("test-secret")

type fakeBackend struct {
	registry *registry.Registry
	ready    ReadyStatus
	reloads  int
	resets   []string
}

func (b *fakeBackend) UpdateWorld(name string, document []byte) (*worldsettings.WorldSettings, error) {
	ov, err := worldsettings.DecodeOverrides(document)
	if err != nil {
		return nil, err
	}
	if _, err := b.registry.Apply(name, ov); err != nil {
		return nil, err
	}
	w, _ := b.registry.Get(name)
	return w, nil
}

func (b *fakeBackend) ResetWorld(name string) (ReloadStatus, error) {
	b.resets = append(b.resets, name)
	return b.Reload()
}

func (b *fakeBackend) Reload() (ReloadStatus, error) {
	b.reloads++
	return ReloadStatus{Revision: b.registry.Revision(), Loaded: len(b.registry.List()), Failed: []string{}}, nil
}

func (b *fakeBackend) Ready() ReadyStatus {
	return b.ready
}

func newServer(t *testing.T, verifier auth.TokenVerifier) (*httptest.Server, *fakeBackend) {
	t.Helper()
	reg := registry.New()
	if _, err := reg.Replace([]*worldsettings.WorldSettings{
		worldsettings.New("world_nether", "Nether", "nether", 1, []string{"flat"}),
		worldsettings.New("world", "World", "overworld", 0, []string{"flat"}),
	}); err != nil {
		t.Fatal(err)
	}
	backend := &fakeBackend{registry: reg, ready: ReadyStatus{Worlds: 2, Database: "OK", MessageBus: "DISABLED"}}
	n := NewNetworking(reg, socket.NewHub(reg), backend, verifier)

	srv := httptest.NewServer(n.Handler())
	t.Cleanup(srv.Close)
	return srv, backend
}

func token(t *testing.T, key []byte) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops"}).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func do(t *testing.T, method, url, bearer, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func TestNetworking_Health(t *testing.T) {
	srv, backend := newServer(t, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"OK"`) {
		t.Errorf("/health = %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/ready", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/ready = %d", resp.StatusCode)
	}

	backend.ready.Database = "FAIL"
	resp, _ = do(t, http.MethodGet, srv.URL+"/ready", "", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/ready with failed db = %d", resp.StatusCode)
	}
}

func TestNetworking_Worlds(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/worlds", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/worlds = %d", resp.StatusCode)
	}
	var list []WorldSummary
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != "world" || list[1].DisplayName != "Nether" {
		t.Errorf("list = %+v", list)
	}
}

func TestNetworking_WorldSettings(t *testing.T) {
	srv, _ := newServer(t, nil)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "known", path: "/worlds/world/settings.json", status: http.StatusOK},
		{name: "unknown", path: "/worlds/skylands/settings.json", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, srv.URL+tt.path, "", "")
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			w, err := worldsettings.Decode(body)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if w.Name() != "world" || w.Zoom() != worldsettings.DefaultZoom() {
				t.Errorf("world = %s", body)
			}
		})
	}
}

func TestNetworking_Gzip(t *testing.T) {
	srv, backend := newServer(t, nil)

	// small bodies go out uncompressed
	ui := worldsettings.DefaultUI()
	ui.ContextMenu.CustomHTML = worldsettings.ContextMenuCustomHTML{
		Enabled: true,
		HTML:    strings.Repeat("<li>coords</li>", 400),
	}
	if _, err := backend.registry.Apply("world", worldsettings.Overrides{UI: &ui}); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/worlds/world/settings.json", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}
}

func TestNetworking_AdminDisabled(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, _ := do(t, http.MethodPost, srv.URL+"/admin/reload", token(t, secret), "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("/admin/reload without admin = %d, want 404", resp.StatusCode)
	}
}

func TestNetworking_UpdateWorld(t *testing.T) {
	srv, _ := newServer(t, auth.NewTokenVerifier(secret))
	valid := token(t, secret)

	tests := []struct {
		name   string
		world  string
		bearer string
		body   string
		status int
	}{
		{
			name:   "no token",
			world:  "world",
			body:   `{}`,
			status: http.StatusUnauthorized,
		},
		{
			name:   "wrong key",
			world:  "world",
			bearer: token(t, []byte("other")),
			body:   `{}`,
			status: http.StatusUnauthorized,
		},
		{
			name:   "unknown world",
			world:  "skylands",
			bearer: valid,
			body:   `{}`,
			status: http.StatusNotFound,
		},
		{
			name:   "invalid document",
			world:  "world",
			bearer: valid,
			body:   `{"ui":{"contextMenu":{"items":["teleport"]}}}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "applied",
			world:  "world",
			bearer: valid,
			body:   `{"spawn":{"x":100,"z":-200}}`,
			status: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPut, srv.URL+"/admin/worlds/"+tt.world, tt.bearer, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
		})
	}

	_, body := do(t, http.MethodGet, srv.URL+"/worlds/world/settings.json", "", "")
	w, err := worldsettings.Decode(body)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if w.Spawn().X != 100 {
		t.Errorf("Spawn() = %+v", w.Spawn())
	}
}

func TestNetworking_Reload(t *testing.T) {
	srv, backend := newServer(t, auth.NewTokenVerifier(secret))

	resp, body := do(t, http.MethodPost, srv.URL+"/admin/reload", token(t, secret), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var status ReloadStatus
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if status.Loaded != 2 || status.Revision == uuid.Nil || backend.reloads != 1 {
		t.Errorf("status = %+v reloads = %d", status, backend.reloads)
	}
}

func TestNetworking_ResetWorld(t *testing.T) {
	srv, backend := newServer(t, auth.NewTokenVerifier(secret))

	resp, _ := do(t, http.MethodDelete, srv.URL+"/admin/worlds/skylands", token(t, secret), "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown world status = %d, want 404", resp.StatusCode)
	}

	resp, body := do(t, http.MethodDelete, srv.URL+"/admin/worlds/world", token(t, secret), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if len(backend.resets) != 1 || backend.resets[0] != "world" {
		t.Errorf("resets = %v", backend.resets)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, errors.WithMessage(worldsettings.ErrInvalidConfigValue, `zoom "default"`))

	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v: %s", err, rec.Body.Bytes())
	}
	if !strings.Contains(got["error"], "invalid") {
		t.Errorf("error = %q", got["error"])
	}
}
