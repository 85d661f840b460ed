package courier

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Stat holds the process-wide client metrics. Every Client in the process
// updates the same collectors.
type Stat struct {
	Connected         prometheus.Gauge
	ConnectAttempts   prometheus.Counter
	ConnectFailures   prometheus.Counter
	Reconnects        prometheus.Counter
	PacketReceived    prometheus.Counter
	ByteReceived      prometheus.Counter
	PacketSent        prometheus.Counter
	ByteSent          prometheus.Counter
	MessagesDelivered prometheus.Counter
	PingTimeouts      prometheus.Counter
	Pending           prometheus.Gauge
	Evicted           prometheus.Counter
}

var (
	stat = Stat{
		Connected:         prometheus.NewGauge(prometheus.GaugeOpts{Name: "courier_connected_clients", Help: "The number of clients with an established session"}),
		ConnectAttempts:   prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_connect_attempts_total", Help: "The total number of CONNECT attempts"}),
		ConnectFailures:   prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_connect_failures_total", Help: "The total number of failed connection attempts"}),
		Reconnects:        prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_reconnects_total", Help: "The total number of scheduled reconnects"}),
		PacketReceived:    prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_received_packets", Help: "The total number of received MQTT packets"}),
		ByteReceived:      prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_received_bytes", Help: "The total number of received MQTT bytes"}),
		PacketSent:        prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_send_packets", Help: "The total number of send MQTT packets"}),
		ByteSent:          prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_send_bytes", Help: "The total number of send MQTT bytes"}),
		MessagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_delivered_messages", Help: "The total number of inbound messages handed to listeners"}),
		PingTimeouts:      prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_ping_timeouts_total", Help: "The total number of keep alive timeouts"}),
		Pending:           prometheus.NewGauge(prometheus.GaugeOpts{Name: "courier_pending_messages", Help: "The number of outbound messages awaiting acknowledgement"}),
		Evicted:           prometheus.NewCounter(prometheus.CounterOpts{Name: "courier_evicted_messages", Help: "The total number of pending messages evicted from a full store"}),
	}
)

func (s *Stat) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		s.Connected, s.ConnectAttempts, s.ConnectFailures, s.Reconnects,
		s.PacketReceived, s.ByteReceived, s.PacketSent, s.ByteSent,
		s.MessagesDelivered, s.PingTimeouts, s.Pending, s.Evicted,
	}
}

// Register adds the collectors to reg. Collectors already registered are skipped.
func (s *Stat) Register(reg prometheus.Registerer) error {
	for _, c := range s.collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// RegisterMetrics registers the client metrics with reg, usually prometheus.DefaultRegisterer.
func RegisterMetrics(reg prometheus.Registerer) error {
	return stat.Register(reg)
}
