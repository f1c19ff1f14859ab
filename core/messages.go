package core

import (
	"context"

	"github.com/PaulFidika/vipbridge/lang"
)

// Messages holds the user-facing reply for every terminal outcome.
type Messages struct {
	Granted     string
	NotVerified string
	NotLinked   string
	NotEntitled string
	Failed      string
	RateLimited string
}

func (m Messages) For(o Outcome) string {
	switch o {
	case OutcomeGranted:
		return m.Granted
	case OutcomeNotVerified:
		return m.NotVerified
	case OutcomeNotLinked:
		return m.NotLinked
	case OutcomeNotEntitled:
		return m.NotEntitled
	case OutcomeRateLimited:
		return m.RateLimited
	default:
		return m.Failed
	}
}

// Catalog maps two-letter language codes to reply messages.
type Catalog map[string]Messages

// DefaultCatalog ships English and Spanish replies.
func DefaultCatalog() Catalog {
	return Catalog{
		"en": {
			Granted:     "VIP role successfully assigned!",
			NotVerified: "Your Discord account is not verified with Bloxlink. Please verify your account and try again.",
			NotLinked:   "Your Discord account is not linked to a Roblox username via Bloxlink. Please link your account and try again.",
			NotEntitled: "You do not have VIP status in the game.",
			Failed:      "Failed to assign the VIP role. Please try again later.",
			RateLimited: "You are doing that too often. Please wait a moment and try again.",
		},
		"es": {
			Granted:     "¡Rol VIP asignado correctamente!",
			NotVerified: "Tu cuenta de Discord no está verificada con Bloxlink. Verifica tu cuenta e inténtalo de nuevo.",
			NotLinked:   "Tu cuenta de Discord no está vinculada a un usuario de Roblox mediante Bloxlink. Vincula tu cuenta e inténtalo de nuevo.",
			NotEntitled: "No tienes estado VIP en el juego.",
			Failed:      "No se pudo asignar el rol VIP. Inténtalo de nuevo más tarde.",
			RateLimited: "Lo estás haciendo demasiado seguido. Espera un momento e inténtalo de nuevo.",
		},
	}
}

// Lookup picks messages for the language carried by ctx, falling back to English.
func (c Catalog) Lookup(ctx context.Context) Messages {
	if l, ok := lang.LanguageFromContext(ctx); ok {
		if m, ok := c[lang.Normalize(l)]; ok {
			return m
		}
	}
	if m, ok := c[lang.Default]; ok {
		return m
	}
	return DefaultCatalog()[lang.Default]
}
