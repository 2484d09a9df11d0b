package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportbot_chat_requests_total",
		Help: "Chat requests by answer route.",
	}, []string{"route"})

	corpusReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportbot_corpus_reloads_total",
		Help: "Corpus reloads by outcome.",
	}, []string{"outcome"})

	corpusEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "supportbot_corpus_entries",
		Help: "Entries in the active corpus snapshot.",
	})

	contactRequestsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportbot_contact_requests_total",
		Help: "Contact requests created, by department.",
	}, []string{"department"})
)
