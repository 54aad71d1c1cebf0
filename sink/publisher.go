package sink

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/swdee/vidtrack"
	"github.com/tidwall/sjson"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Publisher sends the tracks of each frame as JSON to an MQTT topic
type Publisher struct {
	client mqtt.Client
	topic  string
	source string
	qos    byte
	owned  bool
}

// NewPublisher connects to the broker, eg. tcp://localhost:1883
func NewPublisher(broker, clientID, topic, source string) (*Publisher, error) {

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(2 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()

	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connection to %s timed out", broker)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	p := NewPublisherWithClient(client, topic, source)
	p.owned = true

	return p, nil
}

// NewPublisherWithClient publishes through an already connected client, the
// client is not disconnected on Close
func NewPublisherWithClient(client mqtt.Client, topic, source string) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
		source: source,
	}
}

// Name of the sink
func (p *Publisher) Name() string {
	return "mqtt"
}

// Write publishes the frame's tracks
func (p *Publisher) Write(f Frame) error {

	payload, err := TracksPayload(p.source, f)

	if err != nil {
		return fmt.Errorf("%w: mqtt: %v", vidtrack.ErrSinkWrite, err)
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)

	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: mqtt: publish timed out", vidtrack.ErrSinkWrite)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: mqtt: %v", vidtrack.ErrSinkWrite, err)
	}

	return nil
}

// Close disconnects from the broker when the Publisher made the connection
func (p *Publisher) Close() error {

	if p.owned && p.client.IsConnected() {
		p.client.Disconnect(250)
	}

	return nil
}

// TracksPayload renders a frame's tracks as a JSON document of the form
// {"source":..,"frame":..,"fps":..,"count":..,"tracks":[{"id":..,"box":[x1,y1,x2,y2]}]}
func TracksPayload(source string, f Frame) ([]byte, error) {

	js := []byte(`{}`)

	set := func(path string, value interface{}) {
		if js == nil {
			return
		}

		var err error

		if js, err = sjson.SetBytes(js, path, value); err != nil {
			js = nil
		}
	}

	set("source", source)
	set("frame", f.Index)
	set("fps", f.FPS)
	set("count", len(f.Tracks))

	if js == nil {
		return nil, errors.New("error building payload")
	}

	js, err := sjson.SetRawBytes(js, "tracks", []byte(`[]`))

	if err != nil {
		return nil, err
	}

	for _, tr := range f.Tracks {
		set("tracks.-1", map[string]interface{}{
			"id":  tr.ID,
			"box": []int{tr.Box.X1, tr.Box.Y1, tr.Box.X2, tr.Box.Y2},
		})
	}

	if js == nil {
		return nil, errors.New("error building payload tracks")
	}

	return js, nil
}
