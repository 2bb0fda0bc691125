package core

import "traddy-backend-go/internal/models"

// ResolveNotice maps return-trip query flags to the one notice to show.
// Cancellation wins over an expired link, which wins over success.
func ResolveNotice(success, refresh, canceled string) *models.Notice {
	switch {
	case canceled == "true":
		return &models.Notice{Level: "info", Message: "Paiement annulé."}
	case refresh == "true":
		return &models.Notice{Level: "warning", Message: "Le lien a expiré, veuillez relancer la configuration de votre compte de paiement."}
	case success == "true":
		return &models.Notice{Level: "success", Message: "Opération réussie !"}
	}
	return nil
}
