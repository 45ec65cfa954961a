package safemqtt

import (
	// Std
	"strconv"
	"time"

	// Mapconfig
	"github.com/momentum-xyz/mapconfig/internal/config"
	"github.com/momentum-xyz/mapconfig/internal/logger"

	// Third-Party
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
)

// Client is bridge between our app and MQTT
type Client interface {
	SafePublish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	SafeSubscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	SafeUnsubscribe(topics ...string) mqtt.Token
	IsConnected() bool
	Disconnect()
}

type mqttClient struct {
	mutex deadlock.Mutex
	mqtt  mqtt.Client
}

const disconnectQuiesce = 250 // ms

var (
	log                                           = logger.L().With("package", "mqtt")
	connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
		log.Infof("Connection to MQTT broker lost: %v", err)
	}
)

// InitMQTTClient connects to the broker. onConnect runs after every
// (re)connect, which is where retained state gets republished.
func InitMQTTClient(cfg *config.MQTT, id string, onConnect func()) (Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker("tcp://" + cfg.HOST + ":" + strconv.FormatUint(uint64(cfg.PORT), 10))
	opts.SetClientID("mapconfig-" + id)
	opts.SetUsername(cfg.USER)
	opts.SetPassword(cfg.PASSWORD)
	opts.OnConnect = func(client mqtt.Client) {
		log.Info("Connected to MQTT broker")
		if onConnect != nil {
			go onConnect()
		}
	}
	opts.OnConnectionLost = connectLostHandler
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(2 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.WithMessage(token.Error(), "failed to connect")
	}

	return &mqttClient{
		mutex: deadlock.Mutex{},
		mqtt:  client,
	}, nil
}

func (m *mqttClient) SafePublish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.mqtt.Publish(topic, qos, retained, payload)
}

func (m *mqttClient) SafeSubscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.mqtt.Subscribe(topic, qos, callback)
}

func (m *mqttClient) SafeUnsubscribe(topics ...string) mqtt.Token {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.mqtt.Unsubscribe(topics...)
}

func (m *mqttClient) IsConnected() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.mqtt.IsConnected()
}

// Disconnect waits up to disconnectQuiesce for in-flight work, then closes
// the connection and stops reconnecting.
func (m *mqttClient) Disconnect() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.mqtt.Disconnect(disconnectQuiesce)
	log.Info("Disconnected from MQTT broker")
}
