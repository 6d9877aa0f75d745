package middleware

import (
	"fmt"
	"net/http"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
)

// Capability nomeia uma operação protegida da API.
type Capability string

const (
	ViewCatalog     Capability = "view_catalog"
	ManageCatalog   Capability = "manage_catalog"
	ViewInventory   Capability = "view_inventory"
	ManageInventory Capability = "manage_inventory"
	ViewShipments   Capability = "view_shipments"
	ManageShipments Capability = "manage_shipments"
	SubmitInquiry   Capability = "submit_inquiry"
	ManageInquiries Capability = "manage_inquiries"
	ManageUsers     Capability = "manage_users"
)

// capabilities é a única tabela papel → operações permitidas.
var capabilities = map[domain.UserRole]map[Capability]bool{
	domain.RoleGuest: {
		ViewCatalog: true,
	},
	domain.RoleCustomer: {
		ViewCatalog:   true,
		ViewInventory: true,
		SubmitInquiry: true,
	},
	domain.RoleAdmin: {
		ViewCatalog:     true,
		ManageCatalog:   true,
		ViewInventory:   true,
		ManageInventory: true,
		ViewShipments:   true,
		ManageShipments: true,
		SubmitInquiry:   true,
		ManageInquiries: true,
		ManageUsers:     true,
	},
}

// Can informa se o papel tem a capacidade.
func Can(role domain.UserRole, capability Capability) bool {
	return capabilities[role][capability]
}

// Require bloqueia com 403 quem não tem a capacidade. Deve rodar depois do NewAuthMiddleware.
func Require(capability Capability) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if !Can(role, capability) {
				writeError(w, apperror.NewForbiddenError(
					fmt.Sprintf("o papel %s não tem a permissão %s", role, capability)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
