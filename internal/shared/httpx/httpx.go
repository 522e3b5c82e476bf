// Package httpx reúne o formato de resposta e a validação de payload comuns
// às APIs dos serviços.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = newValidator()

// newValidator usa o nome JSON do campo nas mensagens
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorBody é o formato padrão de erro
type ErrorBody struct {
	Error struct {
		Code     string   `json:"code"`
		Message  string   `json:"message"`
		Messages []string `json:"messages,omitempty"`
		Detail   any      `json:"detail,omitempty"`
	} `json:"error"`
}

// WriteJSON serializa a resposta em JSON e define o status HTTP
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError envia um erro estruturado
func WriteError(w http.ResponseWriter, status int, code, message string) {
	var body ErrorBody
	body.Error.Code = code
	body.Error.Message = message
	WriteJSON(w, status, body)
}

// WriteErrors envia um erro com a lista de mensagens para o usuário
func WriteErrors(w http.ResponseWriter, status int, code string, messages []string) {
	var body ErrorBody
	body.Error.Code = code
	body.Error.Message = strings.Join(messages, "; ")
	body.Error.Messages = messages
	WriteJSON(w, status, body)
}

// WriteDetail envia um erro acompanhado de um objeto de detalhe
func WriteDetail(w http.ResponseWriter, status int, code, message string, detail any) {
	var body ErrorBody
	body.Error.Code = code
	body.Error.Message = message
	body.Error.Detail = detail
	WriteJSON(w, status, body)
}

// Internal loga o erro real e devolve uma mensagem genérica
func Internal(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error, try again")
}

// Decode lê o corpo JSON em dst e roda as tags validate.
// Em caso de erro já responde 400/422 e devolve false.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_JSON", "bad json: "+err.Error())
		return false
	}
	if msgs := Validate(dst); len(msgs) > 0 {
		WriteErrors(w, http.StatusUnprocessableEntity, "VALIDATION", msgs)
		return false
	}
	return true
}

// Validate devolve uma mensagem por campo inválido
func Validate(v any) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt", "gte", "lt", "lte", "min", "max":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
