package fleet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/denissonlm/AcoCameras/internal/db"
)

// Kind classifies a failed operation by what the user can do about it.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindPolicy       Kind = "policy"
	KindReference    Kind = "reference"
	KindNotFound     Kind = "not_found"
	KindConfirmation Kind = "confirmation"
	KindTransport    Kind = "transport"
)

// Error is a user-facing failure. Message is shown as is; transport errors
// append the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindTransport && e.Err != nil {
		return e.Message + "\n\nCausa provável: " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Reference(msg string) *Error {
	return &Error{Kind: KindReference, Message: msg}
}

// Confirmation asks the caller to repeat a destructive request once the user
// has accepted prompt.
func Confirmation(prompt string) *Error {
	return &Error{Kind: KindConfirmation, Message: prompt}
}

// kinded is implemented by errors of other packages that know their class.
type kinded interface {
	ErrorKind() string
}

type userMessager interface {
	UserMessage() string
}

// Classify converts err into an *Error. what names the attempted operation
// in the infinitive, e.g. `salvar a divisão "Matriz"`.
func Classify(err error, what string) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	var k kinded
	if errors.As(err, &k) {
		msg := err.Error()
		var um userMessager
		if errors.As(err, &um) {
			msg = um.UserMessage()
		}
		return &Error{Kind: Kind(k.ErrorKind()), Message: msg, Err: err}
	}

	raw := err.Error()
	switch {
	case errors.Is(err, db.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: fmt.Sprintf("Não foi possível %s: registro não encontrado.", what), Err: err}
	case isPolicy(raw):
		return &Error{Kind: KindPolicy, Message: fmt.Sprintf("A operação de %s foi bloqueada por uma política de segurança. Contate um administrador.", what), Err: err}
	case strings.Contains(raw, "FOREIGN KEY constraint failed"):
		return &Error{Kind: KindReference, Message: fmt.Sprintf("Não foi possível %s: o registro ainda é referenciado por outros dados.", what), Err: err}
	case strings.Contains(raw, "UNIQUE constraint failed"):
		return &Error{Kind: KindValidation, Message: fmt.Sprintf("Não foi possível %s: já existe um registro com esse nome.", what), Err: err}
	default:
		return &Error{Kind: KindTransport, Message: fmt.Sprintf("Erro ao %s.", what), Err: err}
	}
}

func isPolicy(msg string) bool {
	for _, marker := range []string{"permission denied", "security policy", "read-only", "readonly"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// KindOf returns the class of err, transport for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Classify(err, "").Kind
}
