package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/pcgearph/storefront/internal/kafka"
	"github.com/pcgearph/storefront/internal/metrics"
	"github.com/pcgearph/storefront/internal/orders"
	"github.com/pcgearph/storefront/internal/redisx"
)

// Sender delivers one rendered email. Satisfied by *BrevoClient.
type Sender interface {
	Send(ctx context.Context, toName, toEmail, subject, html string) error
}

// Service turns order.placed events into confirmation emails. The order is
// already durable when an event reaches us: delivery failures are logged and
// the offset is committed anyway, they never bounce back into the order path.
type Service struct {
	Redis       *redis.Client
	Sender      Sender
	ServiceName string
}

func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "mailer", env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	subject, html, err := BuildReceipt(p)
	if err != nil {
		log.Printf("order %s: render receipt: %v", p.DisplayID, err)
		metrics.ReceiptFailures.Inc()
		return nil
	}

	toName := p.Customer.FirstName + " " + p.Customer.LastName
	if err := s.Sender.Send(ctx, toName, p.Customer.Email, subject, html); err != nil {
		// best-effort: the order stays placed whether or not this arrives
		log.Printf("order %s: receipt email failed: %v", p.DisplayID, err)
		metrics.ReceiptFailures.Inc()
		return nil
	}

	metrics.ReceiptsSent.Inc()
	return nil
}
