package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bemasher/ash500/parse"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	publishTimeout = 5 * time.Second
)

// Publisher sends accepted readings to an MQTT broker.
type Publisher struct {
	client mqtt.Client
	prefix string
}

func generateClientID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "ash500_" + hex.EncodeToString(b)
}

func NewPublisher(broker, prefix string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(generateClientID())

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.WithField("broker", broker).Info("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.WithField("broker", broker).WithError(err).Warn("mqtt connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "connect to %s", broker)
	}

	return &Publisher{client: client, prefix: prefix}, nil
}

// Topic returns the topic a message is published to.
func Topic(prefix string, msg parse.Message) string {
	return fmt.Sprintf("%s/%d", prefix, msg.SensorID())
}

func (p *Publisher) Publish(msg parse.LogMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal reading")
	}

	token := p.client.Publish(Topic(p.prefix, msg), 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("publish to %s timed out", Topic(p.prefix, msg))
	}
	return errors.Wrap(token.Error(), "publish")
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
