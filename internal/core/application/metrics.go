package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message outcomes tracked by the listener: a message is either applied
// (full transition), rejected (precondition failure, no mutation), returned
// (funds bounced back in full) or ignored (no semantics on this channel).
const (
	outcomeApplied  = "applied"
	outcomeRejected = "rejected"
	outcomeReturned = "returned"
	outcomeIgnored  = "ignored"
)

var messagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "saled",
		Name:      "messages_total",
		Help:      "Inbound contract messages by operation and outcome.",
	},
	[]string{"op", "outcome"},
)
