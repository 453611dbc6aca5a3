// Package ledger вычисляет балансы сторон по сырым суммам реестра.
//
// Одна запись перевода сотрудника вендору хранится со знаком минус и
// одновременно является списанием сотрудника и зачислением вендора.
// Поэтому для вендора знак реестра инвертируется. Инверсия выполняется
// только здесь, остальной код пользуется функциями пакета.
package ledger

import "github.com/sujith333333/redeemx-repo/internal/model"

// Of возвращает баланс стороны вида kind по сырым суммам реестра.
func Of(kind model.PartyKind, t model.LedgerTotals) model.Balance {
	if kind == model.PartyVendor {
		return vendorBalance(t)
	}
	return employeeBalance(t)
}

// employeeBalance считает зачисления по положительным записям, списания по модулю отрицательных.
// Assigned: начисления администратора в окне.
func employeeBalance(t model.LedgerTotals) model.Balance {
	return model.Balance{
		Assigned: t.Issuer,
		Balance:  t.Net,
		Credited: t.Positive,
		Debited:  abs(t.Negative),
	}
}

// vendorBalance считает зачисления вендора по отрицательным записям (переводы сотрудников),
// списания по положительным (выплаты по одобренным заявкам).
// Assigned: выплаты вендору в окне.
func vendorBalance(t model.LedgerTotals) model.Balance {
	return model.Balance{
		Assigned: t.Issuer,
		Balance:  VendorTotal(t.Net),
		Credited: abs(t.Negative),
		Debited:  t.Positive,
	}
}

// VendorTotal переводит сырую сумму записей вендора в накопленные им баллы.
func VendorTotal(rawNet int64) int64 {
	return -rawNet
}

// Usable возвращает доступные к выводу баллы вендора.
func Usable(rawNet, pending int64) model.VendorPoints {
	total := VendorTotal(rawNet)
	return model.VendorPoints{
		Total:   total,
		Pending: pending,
		Usable:  total - pending,
	}
}

// TransferDebit возвращает знаковое значение записи перевода сотрудника вендору.
func TransferDebit(points int64) int64 {
	return -points
}

// Payout возвращает знаковое значение записи выплаты вендору по заявке.
func Payout(approved int64) int64 {
	return approved
}

// VendorEntry возвращает значение записи реестра так, как его видит вендор.
func VendorEntry(raw int64) int64 {
	return -raw
}

// Magnitude возвращает модуль суммы для отображения.
func Magnitude(v int64) int64 {
	return abs(v)
}

// YetToApprove возвращает разницу между начисленным вендорам и фактически выплаченным.
func YetToApprove(sentToVendors, claimedByVendors int64) int64 {
	return abs(sentToVendors - claimedByVendors)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
