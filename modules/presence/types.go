package presence

// ServiceGetPresence is the request-reply service answering presence queries.
const ServiceGetPresence = "get-presence"

// GetPresenceRequest is the request for the get-presence service.
type GetPresenceRequest struct {
	UserID string `json:"user_id"`
}

// GetPresenceResponse is the response of the get-presence service.
type GetPresenceResponse struct {
	Presence Status `json:"presence"`
}
