package service

import (
	"github.com/gestor/backoffice/internal/fleet/repository"
	"github.com/gestor/backoffice/pkg/i18n"
)

const (
	// FallbackCategory receives costs of a type with no mapping
	FallbackCategory = "Custos de Veículo"

	categoryDescription = "Custos de veículo"
)

var costCategories = map[repository.CostType]string{
	repository.CostFuel:        "Combustível",
	repository.CostMaintenance: "Manutenção",
	repository.CostTires:       "Pneus",
	repository.CostInsurance:   "Seguro",
	repository.CostTax:         "Imposto",
	repository.CostOther:       "Outros Custos",
}

// CategoryFor names the expense category a cost of type t is booked under
func CategoryFor(t repository.CostType) string {
	if name, ok := costCategories[t]; ok {
		return name
	}
	return FallbackCategory
}

// CostTypeLabel returns the display name of t in locale
func CostTypeLabel(locale string, t repository.CostType) string {
	if !t.Valid() {
		return i18n.TWithLocale(locale, "labels.cost_type.UNKNOWN")
	}
	return i18n.TWithLocale(locale, "labels.cost_type."+string(t))
}
