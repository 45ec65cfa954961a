package socket

import (
	"encoding/json"
	"net/http"

	"github.com/momentum-xyz/mapconfig/internal/registry"
	"github.com/momentum-xyz/mapconfig/pkg/worldsettings"
	"github.com/momentum-xyz/mapconfig/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Update is the message pushed to web clients on every registry revision.
type Update struct {
	Revision uuid.UUID                      `json:"revision"`
	Worlds   []*worldsettings.WorldSettings `json:"worlds"`
}

// Hub keeps the connected web clients and pushes registry revisions to them.
type Hub struct {
	registry    *registry.Registry
	connections *utils.SyncMap[uuid.UUID, *Connection]
}

func NewHub(reg *registry.Registry) *Hub {
	return &Hub{
		registry:    reg,
		connections: utils.NewSyncMap[uuid.UUID, *Connection](),
	}
}

func (h *Hub) Count() int {
	return h.connections.Len()
}

// OnSnapshot is a registry.Listener.
func (h *Hub) OnSnapshot(s registry.Snapshot) {
	msg, err := PrepareUpdate(s)
	if err != nil {
		log.Error(errors.WithMessage(err, "Hub: failed to prepare update"))
		return
	}

	h.connections.Range(func(_ uuid.UUID, c *Connection) bool {
		c.Send(msg)
		return true
	})
}

// ServeHTTP upgrades the request and sends the current state right away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(errors.WithMessage(err, "Hub: socket upgrade error, aborting connection"))
		return
	}

	id := uuid.New()
	c := NewConnection(conn)
	c.SetPumpEndCallback(func() {
		h.connections.Remove(id)
		log.Debugf("Hub: client %s left", id)
	})

	// registered first so no revision falls between the snapshot and the feed
	h.connections.Store(id, c)

	msg, err := PrepareUpdate(h.registry.Snapshot())
	if err != nil {
		log.Error(errors.WithMessage(err, "Hub: failed to prepare initial state"))
		h.connections.Remove(id)
		c.Close()
		return
	}
	if err := c.SendDirectly(msg); err != nil {
		log.Debug(errors.WithMessage(err, "Hub: failed to send initial state"))
		h.connections.Remove(id)
		c.Close()
		return
	}

	c.EnableWriting()
	log.Debugf("Hub: client %s joined", id)

	go c.StartWritePump()
	go c.StartReadPump()
}

func PrepareUpdate(s registry.Snapshot) (*websocket.PreparedMessage, error) {
	worlds := s.Worlds
	if worlds == nil {
		worlds = []*worldsettings.WorldSettings{}
	}
	data, err := json.Marshal(Update{Revision: s.Revision, Worlds: worlds})
	if err != nil {
		return nil, errors.WithMessage(err, "failed to marshal update")
	}
	return websocket.NewPreparedMessage(websocket.TextMessage, data)
}
