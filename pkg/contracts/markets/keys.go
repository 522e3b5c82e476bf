package markets

// OddsKey é o hash Redis com as odds abertas de uma partida.
// Campo = token da seleção, valor = odd com duas casas ("1.85").
func OddsKey(matchID string) string { return "odds:" + matchID }

// PlayerMarketsKey guarda a grade over/under calculada de um jogador
func PlayerMarketsKey(playerID string) string { return "markets:player:" + playerID }
