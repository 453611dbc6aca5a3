// Package model содержит доменные сущности бонусного реестра redeemx.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role описывает роль вызывающей стороны. Роль у идентичности ровно одна.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleVendor   Role = "VENDOR"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole разбирает строковое представление роли.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleEmployee, RoleVendor, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

// Identity описывает аутентифицированного пользователя, от имени которого выполняется операция.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// User представляет учётную запись сотрудника, вендора или администратора.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	EmpID     *string   `json:"emp_id,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Vendor представляет зарегистрированного вендора, принимающего баллы.
type Vendor struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"vendor_name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PartyKind различает держателей баланса.
type PartyKind int

const (
	PartyEmployee PartyKind = iota + 1
	PartyVendor
)

func (k PartyKind) String() string {
	switch k {
	case PartyEmployee:
		return "employee"
	case PartyVendor:
		return "vendor"
	default:
		return "unknown"
	}
}

// Party описывает сотрудника или вендора, для которого считается баланс.
type Party struct {
	Kind PartyKind
	ID   uuid.UUID
}

// EmployeeParty возвращает Party сотрудника.
func EmployeeParty(id uuid.UUID) Party { return Party{Kind: PartyEmployee, ID: id} }

// VendorParty возвращает Party вендора.
func VendorParty(id uuid.UUID) Party { return Party{Kind: PartyVendor, ID: id} }

// LedgerEntry представляет неизменяемую запись реестра со знаковым количеством баллов.
type LedgerEntry struct {
	ID          uuid.UUID  `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	Points      int64      `json:"points"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	VendorID    *uuid.UUID `json:"vendor_id,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// ClaimStatus описывает состояние заявки вендора на вывод баллов.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "PENDING"
	ClaimApproved ClaimStatus = "APPROVED"
	ClaimRejected ClaimStatus = "REJECTED"
)

// ParseClaimStatus разбирает статус заявки без учёта регистра.
func ParseClaimStatus(s string) (ClaimStatus, bool) {
	switch st := ClaimStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case ClaimPending, ClaimApproved, ClaimRejected:
		return st, true
	default:
		return "", false
	}
}

// Terminal сообщает, что заявка уже рассмотрена.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimApproved || s == ClaimRejected
}

// Claim представляет заявку вендора на вывод накопленных баллов.
type Claim struct {
	ID                     uuid.UUID   `json:"id"`
	VendorID               uuid.UUID   `json:"vendor_id"`
	Points                 int64       `json:"points"`
	Status                 ClaimStatus `json:"status"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              *time.Time  `json:"updated_at"`
	AdminName              *string     `json:"admin_name,omitempty"`
	TransactionReferenceID *string     `json:"transaction_reference_id,omitempty"`
}

// ClaimView содержит заявку вместе с именем вендора.
type ClaimView struct {
	Claim
	VendorName string `json:"vendor_name"`
}

// ClaimFilter задаёт отбор заявок.
type ClaimFilter struct {
	VendorID   *uuid.UUID
	VendorName string
	Status     ClaimStatus
}

// DailyReportSnapshot содержит снимок агрегатов реестра на момент создания заявки.
type DailyReportSnapshot struct {
	ID                        uuid.UUID `json:"id"`
	PointsRedeemedByEmployees int64     `json:"points_redeemed_by_employees"`
	VendorBalancePoints       int64     `json:"vendor_balance_points"`
	PointsRedeemedByVendor    int64     `json:"points_redeemed_by_vendor"`
	CreatedAt                 time.Time `json:"date"`
}

// Balance содержит баланс стороны и агрегаты за окно.
type Balance struct {
	Assigned int64 `json:"assigned"`
	Balance  int64 `json:"balance"`
	Credited int64 `json:"credited"`
	Debited  int64 `json:"debited"`
}

// LedgerTotals содержит сырые знаковые суммы реестра по одной стороне.
// Net считается по всем записям, остальные поля: только внутри окна.
type LedgerTotals struct {
	Net      int64
	Positive int64
	Negative int64
	Issuer   int64
}

// VendorPoints описывает доступные к выводу баллы вендора.
type VendorPoints struct {
	VendorID   uuid.UUID `json:"vendor_id"`
	VendorName string    `json:"vendor_name"`
	Total      int64     `json:"total_points"`
	Pending    int64     `json:"pending_points"`
	Usable     int64     `json:"usable_points"`
}

// ReportTotals содержит агрегаты реестра для отчётов администратора.
type ReportTotals struct {
	AssignedToEmployee        int64 `json:"points_assigned_to_employee"`
	AssignedToEmployeeBalance int64 `json:"points_assigned_to_employee_balance"`
	UserSendsToVendor         int64 `json:"total_points_user_sends_to_vendor"`
	ClaimedByVendor           int64 `json:"points_claimed_by_vendor"`
	YetToApproveToVendor      int64 `json:"points_yet_to_approve_to_vendor"`
}

// EntrySource ограничивает выборку записей реестра по происхождению.
type EntrySource int

const (
	SourceAll EntrySource = iota
	SourceUsers
	SourceAdmin
)

// EntrySign ограничивает выборку записей реестра по знаку.
type EntrySign int

const (
	SignAny EntrySign = iota
	SignPositive
	SignNegative
)

// EntryFilter задаёт отбор записей реестра для истории операций.
type EntryFilter struct {
	Party  Party
	Window Window
	Source EntrySource
	Sign   EntrySign
	Limit  int
	Offset int
}

// EntryView описывает запись реестра с именем контрагента.
type EntryView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Points      int64     `json:"points"`
	Description *string   `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}
