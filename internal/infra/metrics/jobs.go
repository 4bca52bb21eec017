package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(translationJobsTotal, chunkRetriesTotal, chunkLatencySeconds, jobsSweptTotal, chatsSweptTotal)
}

var (
	translationJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translation_jobs_total",
			Help: "Translation jobs by lifecycle event.",
		},
		[]string{"status"}, // 'created', 'completed', 'failed', 'cancelled'
	)

	chunkRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translation_chunk_retries_total",
			Help: "Chunk translation retries by failure kind.",
		},
		[]string{"kind"},
	)

	chunkLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "translation_chunk_seconds",
			Help:    "Wall time to translate one chunk, retries included.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	jobsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "translation_jobs_swept_total",
			Help: "Expired jobs removed by the sweeper.",
		},
	)

	chatsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "document_chats_swept_total",
			Help: "Chats removed by the retention sweep.",
		},
	)
)

func IncTranslationJob(status string) {
	translationJobsTotal.WithLabelValues(norm(status)).Inc()
}

func IncChunkRetry(kind string) {
	chunkRetriesTotal.WithLabelValues(norm(kind)).Inc()
}

func ObserveChunkSeconds(s float64) { chunkLatencySeconds.Observe(s) }

func AddJobsSwept(n int64) { jobsSweptTotal.Add(float64(n)) }

func AddChatsSwept(n int64) { chatsSweptTotal.Add(float64(n)) }
