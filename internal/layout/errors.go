package layout

import "fmt"

// ruleError is an editing rule violation; ErrorKind names its error class.
type ruleError struct {
	msg  string
	kind string
}

func (e *ruleError) Error() string     { return e.msg }
func (e *ruleError) ErrorKind() string { return e.kind }

var (
	ErrLocked          error = &ruleError{"remova todas as câmeras do layout antes de trocar ou girar a imagem de fundo", "validation"}
	ErrBadRotation     error = &ruleError{"a imagem de fundo só pode ser girada em 90 graus", "validation"}
	ErrBadPosition     error = &ruleError{"posição inválida: informe x e y ou o ponteiro e a área do layout", "validation"}
	ErrNoImage         error = &ruleError{"nenhuma imagem enviada", "validation"}
	ErrUnknownChannel  error = &ruleError{"canal não encontrado", "not_found"}
	ErrUnknownDivision error = &ruleError{"divisão não encontrada", "not_found"}
	ErrWrongDivision   error = &ruleError{"o canal pertence a um dispositivo de outra divisão", "validation"}
)

// UploadClass groups upload failures by what the user can do about them.
type UploadClass string

const (
	UploadPermission UploadClass = "permission"
	UploadTransport  UploadClass = "transport"
	UploadURL        UploadClass = "url"
)

// UploadError is a failed background image upload.
type UploadError struct {
	Class UploadClass
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload layout image (%s): %v", e.Class, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) ErrorKind() string {
	if e.Class == UploadPermission {
		return "policy"
	}
	return "transport"
}

// NeedsAdmin reports whether retrying cannot help.
func (e *UploadError) NeedsAdmin() bool {
	return e.Class == UploadPermission
}

// UserMessage is the single alert shown for the failure.
func (e *UploadError) UserMessage() string {
	var msg, instructions string
	switch e.Class {
	case UploadPermission:
		msg = "O upload foi bloqueado por falta de permissão no armazenamento de imagens."
		instructions = "Ação necessária: um administrador precisa liberar a escrita no bucket 'layouts'. Sem isso, os uploads não funcionarão."
	case UploadURL:
		msg = "O upload foi bem-sucedido, mas não foi possível obter a URL final."
		instructions = "Isso pode indicar um problema temporário no servidor. Tente novamente."
	default:
		msg = "A comunicação com o servidor de arquivos falhou durante o upload."
		instructions = "Verifique sua conexão e tente novamente."
		if e.Err != nil {
			instructions += " Erro original: " + e.Err.Error()
		}
	}
	return "Falha ao carregar a imagem do layout:\n\n" + msg + "\n\n" + instructions
}
