package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// PurchasesExchange — exchange для событий покупок курсов.
const PurchasesExchange = "purchases"

// CompletedRoutingKey — ключ маршрутизации успешных покупок.
const CompletedRoutingKey = "purchase.completed"

// SetupChannel открывает канал и объявляет exchange и очередь событий покупок.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.ExchangeDeclare(
		PurchasesExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_, err = ch.QueueDeclare(
		"purchases.completed",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.QueueBind("purchases.completed", CompletedRoutingKey, PurchasesExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, err
}
