package service

import (
	"github.com/gestor/backoffice/pkg/i18n"
)

const (
	// SalaryCategory is the expense category every payment is booked under
	SalaryCategory = "Salários"

	salaryCategoryDescription = "Pagamentos de funcionários"
	entryDescriptionPrefix    = "Pagamento - "
)

// PaymentMethods are the methods with a display label. Other values are
// stored as given.
var PaymentMethods = []string{"CASH", "BANK_TRANSFER", "CHECK", "PIX", "CREDIT_CARD", "DEBIT_CARD"}

// PaymentMethodLabel returns the display name of method in locale, or the
// method itself when it has no label
func PaymentMethodLabel(locale, method string) string {
	key := "labels.payment_method." + method
	if label := i18n.TWithLocale(locale, key); label != key {
		return label
	}
	return method
}
