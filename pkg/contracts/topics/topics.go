package topics

const (
	// Partidas
	MatchResultSubmitted = "match_result_submitted"

	// Bilhetes
	SlipPlaced  = "slip_placed"
	SlipSettled = "slip_settled"

	// Liga
	RatingsUpdated = "ratings_updated"

	// DLQs
	MatchResultDLQ = "match_result_submitted_dlq"
)

// Canal Redis Pub/Sub que alimenta o websocket do bet-service
const ChannelSlipSettled = "slip_settled_broadcast"
