package models

// Account is a row of the accounts table. The primary key is (tenant_id, account_number).
type Account struct {
	TenantID      string `db:"tenant_id"`
	AccountNumber string `db:"account_number"`
	Name          string `db:"name"`
	AccountType   string `db:"account_type"`
	NormalBalance string `db:"normal_balance"`
	IsActive      bool   `db:"is_active"`
	AuditFields
}
