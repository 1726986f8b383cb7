// Package audit records the mutations performed through the dashboard and
// ships them to the log and, optionally, to a Kafka topic.
package audit
