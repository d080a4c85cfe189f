/*
Package rabbitmq provides a RabbitMQ-backed target for the event binder.
It maps event types onto AMQP queue consumers, generates one consumer tag per
registration, and honors removal signals by canceling the consumer.
*/
package rabbitmq
