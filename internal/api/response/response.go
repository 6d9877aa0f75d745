package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
)

// maxBodyBytes limita o tamanho dos payloads JSON aceitos.
const maxBodyBytes = 1 << 20

// Responder padroniza respostas de sucesso e de erro para todos os handlers.
type Responder struct {
	Logger logger.Logger
}

// New cria um Responder.
func New(log logger.Logger) Responder {
	return Responder{Logger: log}
}

// Handle escreve data com successStatus, ou traduz err para o corpo {code, category, message, details}.
func (h Responder) Handle(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		h.Error(w, r, err)
		return
	}

	if data == nil {
		w.WriteHeader(successStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(successStatus)
	if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
		h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
	}
}

// Error escreve a resposta de erro. Erros 5xx são registrados com a causa; 4xx só em Debug.
func (h Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s %s (%s)", r.Method, r.URL.Path, category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category),
			map[string]interface{}{"path": r.URL.Path, "method": r.Method})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
		Details:  apperror.Details(err),
	})
}

// Decode lê o corpo JSON em dst; campos desconhecidos e JSON malformado viram ValidationError.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("Payload JSON inválido: %v", err))
	}
	return nil
}
