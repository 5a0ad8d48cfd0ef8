// Package pskreporter implements the MQTT ingest loop against the
// PSKReporter spot feed.
//
// PSKReporter publishes digital-mode reception reports (FT8, FT4, WSPR, ...)
// as JSON over MQTT, one topic subtree per band:
//
//	pskr/filter/v2/{band}/#   e.g. pskr/filter/v2/20m/# for all 20m spots
//
// The client subscribes to one topic per enabled band and drives every
// message through extract -> classify -> retain -> broadcast. The per-message
// path is panic-isolated: a malformed message is counted and discarded, never
// allowed to take down the loop. Connection care is delegated to the Paho
// library (retrying initial connect, auto-reconnect with a capped interval);
// on every (re)connect the current topic set is subscribed afresh.
package pskreporter

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	jsoniter "github.com/json-iterator/go"

	"pskprop/diag"
	"pskprop/filter"
	"pskprop/hub"
	"pskprop/spot"
	"pskprop/store"
)

// Defaults for the public PSKReporter broker.
const (
	DefaultBroker      = "mqtt.pskreporter.info"
	DefaultPort        = 1883
	DefaultTopicPrefix = "pskr/filter/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client owns the MQTT connection and the per-message pipeline. All exported
// methods are safe for concurrent use; the subscription set is guarded by a
// mutex because reconfiguration and onConnect can race.
type Client struct {
	broker      string
	port        int
	clientID    string
	keepalive   time.Duration
	topicPrefix string

	engine  *filter.Engine
	cfg     *filter.Config
	dots    *store.Store
	hub     *hub.Hub
	tracker *diag.Tracker

	client mqtt.Client

	mu     sync.Mutex
	topics map[string]struct{} // currently subscribed topic filters
}

// Options configures the broker endpoint.
type Options struct {
	Broker      string
	Port        int
	ClientID    string
	Keepalive   time.Duration
	TopicPrefix string
}

// NewClient wires the ingest client to the shared pipeline components.
func NewClient(opts Options, cfg *filter.Config, engine *filter.Engine, dots *store.Store, h *hub.Hub, tracker *diag.Tracker) *Client {
	if opts.Broker == "" {
		opts.Broker = DefaultBroker
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.ClientID == "" {
		opts.ClientID = fmt.Sprintf("pskprop-%d", time.Now().Unix())
	}
	if opts.Keepalive <= 0 {
		opts.Keepalive = 60 * time.Second
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = DefaultTopicPrefix
	}
	return &Client{
		broker:      opts.Broker,
		port:        opts.Port,
		clientID:    opts.ClientID,
		keepalive:   opts.Keepalive,
		topicPrefix: opts.TopicPrefix,
		engine:      engine,
		cfg:         cfg,
		dots:        dots,
		hub:         h,
		tracker:     tracker,
		topics:      make(map[string]struct{}),
	}
}

// TopicForBand returns the topic filter covering one band's subtree.
func (c *Client) TopicForBand(band string) string {
	return fmt.Sprintf("%s/%s/#", c.topicPrefix, band)
}

// Connect establishes the connection to the PSKReporter broker. The initial
// connect retries until it succeeds; later drops are healed by the library's
// auto-reconnect.
func (c *Client) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", c.broker, c.port))
	opts.SetClientID(c.clientID)
	opts.SetKeepAlive(c.keepalive)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)

	log.Printf("PSKReporter: connecting to tcp://%s:%d...", c.broker, c.port)
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to PSKReporter: %w", token.Error())
	}
	return nil
}

// onConnect runs on every successful (re)connection and subscribes the topic
// set for the currently enabled bands.
func (c *Client) onConnect(client mqtt.Client) {
	bands := c.cfg.Current().Bands()
	log.Printf("PSKReporter: connected, subscribing %d band topics", len(bands))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = make(map[string]struct{}, len(bands))
	for _, band := range bands {
		topic := c.TopicForBand(band)
		c.topics[topic] = struct{}{}
		token := client.Subscribe(topic, 0, c.messageHandler)
		if token.Wait() && token.Error() != nil {
			log.Printf("PSKReporter: subscribe %s failed: %v", topic, token.Error())
			continue
		}
		log.Printf("PSKReporter: subscribed %s", topic)
	}
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("PSKReporter: connection lost: %v (reconnecting)", err)
}

func (c *Client) messageHandler(client mqtt.Client, msg mqtt.Message) {
	c.HandlePayload(msg.Payload())
}

// HandlePayload runs the per-message pipeline on one raw payload. Undecodable
// payloads are discarded without touching the seen counter; any later failure
// is recorded as a parse drop. Nothing in here may terminate the loop.
func (c *Client) HandlePayload(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.tracker.RecordException(fmt.Errorf("message processing panic: %v", r))
		}
	}()

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return
	}
	c.tracker.IncrementSeen()

	report := spot.ExtractReport(fields)
	verdict := c.engine.Evaluate(report, time.Now())
	c.tracker.RecordVerdict(verdict)
	if !verdict.Accepted {
		return
	}
	c.dots.Append(verdict.Dot)
	c.hub.Broadcast(hub.TypeAdd, verdict.Dot)
}

// SetBands diffs the subscription set against the given bands, unsubscribing
// removed topics and subscribing added ones. Called by the reconfiguration
// controller; a no-op diff performs no broker traffic.
func (c *Client) SetBands(bands []string) {
	next := make(map[string]struct{}, len(bands))
	for _, band := range bands {
		next[c.TopicForBand(band)] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for topic := range c.topics {
		if _, keep := next[topic]; keep {
			continue
		}
		if c.client != nil {
			c.client.Unsubscribe(topic)
			log.Printf("PSKReporter: unsubscribed %s", topic)
		}
	}
	for topic := range next {
		if _, have := c.topics[topic]; have {
			continue
		}
		if c.client != nil {
			c.client.Subscribe(topic, 0, c.messageHandler)
			log.Printf("PSKReporter: subscribed %s", topic)
		}
	}
	c.topics = next
}

// Topics returns the current subscription topic set, sorted.
func (c *Client) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	topics := make([]string, 0, len(c.topics))
	for topic := range c.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// IsConnected returns whether the client currently holds a broker connection.
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Stop unsubscribes everything and closes the connection.
func (c *Client) Stop() {
	c.mu.Lock()
	topics := make([]string, 0, len(c.topics))
	for topic := range c.topics {
		topics = append(topics, topic)
	}
	c.mu.Unlock()

	if c.client != nil && c.client.IsConnected() {
		for _, topic := range topics {
			c.client.Unsubscribe(topic)
		}
		c.client.Disconnect(250)
	}
	log.Println("PSKReporter: client stopped")
}
