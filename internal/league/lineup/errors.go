package lineup

import (
	"errors"
	"strings"
)

// ErrorKind classifica as falhas da escalação
type ErrorKind string

const (
	// KindValidation: entrada inválida, detectada antes de qualquer cálculo
	KindValidation ErrorKind = "VALIDATION"
	// KindNoFeasibleRoster: nenhum subconjunto atende às cotas de posição
	KindNoFeasibleRoster ErrorKind = "NO_FEASIBLE_ROSTER"
	// KindNoComplementaryPair: há time A viável mas nenhum B complementar
	KindNoComplementaryPair ErrorKind = "NO_COMPLEMENTARY_PAIR"
)

// Error carrega o tipo da falha e as mensagens exibidas ao usuário
type Error struct {
	Kind     ErrorKind `json:"kind"`
	Messages []string  `json:"messages"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + strings.Join(e.Messages, "; ")
}

// KindOf devolve o tipo de um erro de escalação, ou "" se não for um
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
