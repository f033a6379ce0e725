package constant

// Sentiment is the enumerated outcome of call analysis.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Sentiments lists every value analysis may assign.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}

func (s Sentiment) String() string {
	return string(s)
}

// SentimentUnknown is a reporting bucket for calls whose insight carries no
// sentiment. It is never persisted on an insight row.
const SentimentUnknown = "Unknown"

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

// Queue topology: one topic exchange, one lane per job kind so a backlog of
// report jobs cannot starve call processing.
const (
	ExchangeName = "call_insights_exchange"

	CallProcessingQueue      = "call_processing_queue"
	CallProcessingRoutingKey = "call.process"
	CallProcessingDLX        = "call_insights_exchange_dlx"
	CallProcessingDLQ        = "call_processing_queue_dlq"
	CallProcessingDLQKey     = "dlq.call.process"

	ReportGenerationQueue      = "report_generation_queue"
	ReportGenerationRoutingKey = "report.generate"
)
