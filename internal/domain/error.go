package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int                    `json:"code" example:"409"`
	Category string                 `json:"category" example:"CONFLICT"`
	Message  string                 `json:"message" example:"Conflito de estado: números de série já existem: S2"`
	Details  map[string]interface{} `json:"details,omitempty"`
}
