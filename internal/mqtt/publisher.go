package safemqtt

import (
	// Std
	"encoding/json"
	"time"

	// Mapconfig
	"github.com/momentum-xyz/mapconfig/internal/registry"

	// Third-Party
	"github.com/eapache/queue"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
)

const (
	publishTimeout = 5 * time.Second
	// publications kept while the broker is unreachable
	maxPending = 1024
)

type publication struct {
	topic   string
	payload []byte
}

type worldList struct {
	Revision uuid.UUID `json:"revision"`
	Worlds   []string  `json:"worlds"`
}

// Publisher mirrors every registry revision to retained MQTT topics:
//
//	<prefix>/worlds                  {"revision": ..., "worlds": [names]}
//	<prefix>/worlds/<name>/settings  the world settings document
//
// The settings topic of a world that left the registry is cleared with an
// empty retained message.
type Publisher struct {
	client  Client
	prefix  string
	mu      deadlock.Mutex
	pending *queue.Queue
	// worlds with a retained settings message
	published map[string]struct{}
}

func NewPublisher(client Client, prefix string) *Publisher {
	return &Publisher{
		client:    client,
		prefix:    prefix,
		pending:   queue.New(),
		published: make(map[string]struct{}),
	}
}

func (p *Publisher) WorldsTopic() string {
	return p.prefix + "/worlds"
}

func (p *Publisher) SettingsTopic(name string) string {
	return p.prefix + "/worlds/" + name + "/settings"
}

func (p *Publisher) ReloadTopic() string {
	return p.prefix + "/control/reload"
}

// OnSnapshot is a registry.Listener.
func (p *Publisher) OnSnapshot(s registry.Snapshot) {
	list := worldList{Revision: s.Revision, Worlds: make([]string, 0, len(s.Worlds))}
	pubs := make([]publication, 0, len(s.Worlds)+1)
	for _, w := range s.Worlds {
		data, err := json.Marshal(w)
		if err != nil {
			log.Error(errors.WithMessagef(err, "Publisher: failed to encode %s", w.Name()))
			continue
		}
		list.Worlds = append(list.Worlds, w.Name())
		pubs = append(pubs, publication{topic: p.SettingsTopic(w.Name()), payload: data})
	}
	data, err := json.Marshal(list)
	if err != nil {
		log.Error(errors.WithMessage(err, "Publisher: failed to encode world list"))
		return
	}
	pubs = append(pubs, publication{topic: p.WorldsTopic(), payload: data})

	current := make(map[string]struct{}, len(list.Worlds))
	for _, name := range list.Worlds {
		current[name] = struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for name := range p.published {
		if _, ok := current[name]; !ok {
			log.Infof("Publisher: clearing settings of removed world %s", name)
			p.enqueue(publication{topic: p.SettingsTopic(name), payload: []byte{}})
		}
	}
	p.published = current
	for _, pub := range pubs {
		p.enqueue(pub)
	}
	p.flushLocked()
}

// Flush sends whatever queued up while the broker was unreachable.
func (p *Publisher) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushLocked()
}

func (p *Publisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.Length()
}

func (p *Publisher) enqueue(pub publication) {
	if p.pending.Length() >= maxPending {
		dropped := p.pending.Remove().(publication)
		log.Warnf("Publisher: queue full, dropping %s", dropped.topic)
	}
	p.pending.Add(pub)
}

func (p *Publisher) flushLocked() {
	for p.pending.Length() > 0 {
		if !p.client.IsConnected() {
			log.Debugf("Publisher: broker unreachable, %d pending", p.pending.Length())
			return
		}
		pub := p.pending.Peek().(publication)
		token := p.client.SafePublish(pub.topic, 1, true, pub.payload)
		if !token.WaitTimeout(publishTimeout) {
			log.Warnf("Publisher: publish to %s timed out", pub.topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Warn(errors.WithMessagef(err, "Publisher: failed to publish to %s", pub.topic))
			return
		}
		p.pending.Remove()
	}
}

// SubscribeReload calls reload for every message on the reload topic.
func (p *Publisher) SubscribeReload(reload func()) error {
	handler := LogMQTTMessageHandler("reload", func(client mqtt.Client, msg mqtt.Message) error {
		log.Infof("MQTT: reload requested on %s", msg.Topic())
		reload()
		return nil
	})
	token := p.client.SafeSubscribe(p.ReloadTopic(), 1, handler)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("subscribe to %s timed out", p.ReloadTopic())
	}
	return errors.WithMessage(token.Error(), "failed to subscribe")
}
