package user

import (
	"net/http"

	"stockledger/internal/api/response"
	"stockledger/internal/domain"
	"stockledger/internal/pkg/logger"
)

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service domain.UserService
	resp    response.Responder
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc domain.UserService, log logger.Logger) *Handler {
	return &Handler{Service: svc, resp: response.New(log)}
}

// RegisterUserHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Cria um novo usuário com papel guest, hasheia a senha e salva no banco de dados.
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Dados de registro"
// @Success 201 {object} domain.User "Usuário criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido (JSON malformado ou campos obrigatórios ausentes)"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.UserRegistration
	if err := response.Decode(w, r, &reg); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	// O PasswordHash não sai na resposta por causa da tag `json:"-"`.
	newUser, err := h.Service.Register(r.Context(), reg)
	h.resp.Handle(w, r, newUser, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário e retorna um JWT
// @Description Recebe email/senha, verifica a validade e emite um JSON Web Token.
// @Tags users
// @Accept json
// @Produce json
// @Param login body domain.LoginRequest true "Credenciais do usuário (email e senha)"
// @Success 200 {object} map[string]string "Token JWT emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var loginReq domain.LoginRequest
	if err := response.Decode(w, r, &loginReq); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	token, err := h.Service.Login(r.Context(), loginReq.Email, loginReq.Password)
	h.resp.Handle(w, r, map[string]string{"token": token}, err, http.StatusOK)
}

// SetRoleHandler lida com PATCH /v1/users/{id}/role.
// @Summary Troca o papel de um usuário
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "ID do usuário"
// @Param role body domain.RoleChange true "Novo papel"
// @Success 200 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/role [patch]
func (h *Handler) SetRoleHandler(w http.ResponseWriter, r *http.Request) {
	var change domain.RoleChange
	if err := response.Decode(w, r, &change); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	updated, err := h.Service.SetRole(r.Context(), r.PathValue("id"), change.Role)
	h.resp.Handle(w, r, updated, err, http.StatusOK)
}
