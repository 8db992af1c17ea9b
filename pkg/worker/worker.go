// Package worker runs the background consumer that drains the
// translation-record queue into the history table.
package worker

// Config defines the consumer's redis connection and scheduling.
type Config struct {
	RedisAddr   string
	RedisDB     int
	Concurrency int
	Queues      map[string]int
}
