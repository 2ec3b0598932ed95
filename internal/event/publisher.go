package event

import (
	"encoding/json"
	"log"
	"time"

	"github.com/streadway/amqp"
)

// Routing keys for assessment lifecycle events.
const (
	SessionStarted        = "assessment.session.started"
	StepSubmitted         = "assessment.step.submitted"
	StepStarted           = "assessment.step.started"
	SessionCompleted      = "assessment.session.completed"
	SessionFailed         = "assessment.session.failed"
	SessionExpired        = "assessment.session.expired"
	SessionForceSubmitted = "assessment.session.force_submitted"
	CertificateIssued     = "certificate.issued"
	CertificateRevoked    = "certificate.revoked"
)

// Publisher emits lifecycle events on a topic exchange. A nil Publisher is
// valid and drops everything, so callers never need to guard.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *Publisher) Publish(routingKey string, payload interface{}) error {
	if p == nil {
		return nil
	}

	envelope := map[string]interface{}{
		"type":      routingKey,
		"payload":   payload,
		"timestamp": time.Now().UTC(),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	err = p.channel.Publish(
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		log.Printf("[EVENT] publish %s failed: %v", routingKey, err)
	}
	return err
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
