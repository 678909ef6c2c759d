package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weechatpage",
			Subsystem: "relay",
			Name:      "frames_total",
			Help:      "Frames extracted from the relay stream.",
		},
		[]string{"compression"},
	)
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weechatpage",
			Subsystem: "relay",
			Name:      "messages_total",
			Help:      "Decoded relay messages by handler name.",
		},
		[]string{"handler"},
	)
	unknownMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "weechatpage",
			Subsystem: "relay",
			Name:      "unknown_messages_total",
			Help:      "Messages dropped because no handler is registered.",
		},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weechatpage",
			Subsystem: "relay",
			Name:      "decode_errors_total",
			Help:      "Frames or messages dropped due to decode or handler errors.",
		},
		[]string{"stage"},
	)
	notificationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "weechatpage",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Notifications handed to the notifier.",
		},
	)
	buffersKnown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "weechatpage",
			Subsystem: "relay",
			Name:      "buffers",
			Help:      "Remote buffers currently tracked by the registry.",
		},
	)
	connected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "weechatpage",
			Subsystem: "relay",
			Name:      "connected",
			Help:      "1 while the relay connection is up.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesTotal,
			messagesTotal,
			unknownMessages,
			decodeErrors,
			notificationsTotal,
			buffersKnown,
			connected,
		)
	})
}

func RecordFrame(compression string) {
	RegisterMetrics()
	framesTotal.WithLabelValues(compression).Inc()
}

func RecordMessage(handler string) {
	RegisterMetrics()
	messagesTotal.WithLabelValues(handler).Inc()
}

func RecordUnknownMessage() {
	RegisterMetrics()
	unknownMessages.Inc()
}

func RecordDecodeError(stage string) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(stage).Inc()
}

func RecordNotification() {
	RegisterMetrics()
	notificationsTotal.Inc()
}

func SetBufferCount(n int) {
	RegisterMetrics()
	buffersKnown.Set(float64(n))
}

func SetConnected(up bool) {
	RegisterMetrics()
	if up {
		connected.Set(1)
		return
	}
	connected.Set(0)
}
