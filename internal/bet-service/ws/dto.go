package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// UserID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type   string `json:"type"`   // subscribe | unsubscribe | ping
	UserID string `json:"userId"` // requerido em subscribe/unsubscribe
}

// SlipUpdate é o fechamento de um bilhete repassado ao dono
type SlipUpdate struct {
	UserID  string `json:"userId"`
	Payload any    `json:"payload"`
}
