package domain

// Standard account numbers posted to by the assessment, payment and refund flows.
// Filer book accounts come first, municipality book accounts second.
const (
	AcctFilerCash          = "1000"
	AcctRefundReceivable   = "1300"
	AcctOverpaymentCredit  = "1350"
	AcctTaxLiability       = "2100"
	AcctPenaltyLiability   = "2110"
	AcctInterestLiability  = "2120"
	AcctTaxExpense         = "6100"
	AcctPenaltyExpense     = "6110"
	AcctInterestExpense    = "6120"
	AcctMunicipalityCash   = "1001"
	AcctAccountsReceivable = "1200"
	AcctRefundsPayable     = "2200"
	AcctOverpaymentsHeld   = "2300"
	AcctTaxRevenue         = "4100"
	AcctPenaltyRevenue     = "4110"
	AcctInterestRevenue    = "4120"
)

// ChartAccount describes one account of the standard chart.
type ChartAccount struct {
	AccountNumber string
	Name          string
	AccountType   AccountType
	NormalBalance NormalBalance
}

// StandardChart is seeded per tenant.
var StandardChart = []ChartAccount{
	{AcctFilerCash, "Filer Cash", Asset, DebitNormal},
	{AcctRefundReceivable, "Refund Receivable", Asset, DebitNormal},
	{AcctOverpaymentCredit, "Tax Overpayment Credit", Asset, DebitNormal},
	{AcctTaxLiability, "Tax Liability", Liability, CreditNormal},
	{AcctPenaltyLiability, "Penalty Liability", Liability, CreditNormal},
	{AcctInterestLiability, "Interest Liability", Liability, CreditNormal},
	{AcctTaxExpense, "Tax Expense", Expense, DebitNormal},
	{AcctPenaltyExpense, "Penalty Expense", Expense, DebitNormal},
	{AcctInterestExpense, "Interest Expense", Expense, DebitNormal},
	{AcctMunicipalityCash, "Municipality Cash", Asset, DebitNormal},
	{AcctAccountsReceivable, "Accounts Receivable", Asset, DebitNormal},
	{AcctRefundsPayable, "Refunds Payable", Liability, CreditNormal},
	{AcctOverpaymentsHeld, "Filer Overpayments Held", Liability, CreditNormal},
	{AcctTaxRevenue, "Tax Revenue", Revenue, CreditNormal},
	{AcctPenaltyRevenue, "Penalty Revenue", Revenue, CreditNormal},
	{AcctInterestRevenue, "Interest Revenue", Revenue, CreditNormal},
}

// Bucket is one of the three components of an assessed liability.
type Bucket string

const (
	BucketTax      Bucket = "TAX"
	BucketPenalty  Bucket = "PENALTY"
	BucketInterest Bucket = "INTEREST"
)

// Buckets in payment allocation priority order.
var Buckets = []Bucket{BucketTax, BucketPenalty, BucketInterest}

// BucketAccounts maps a bucket to the accounts it touches on each book.
type BucketAccounts struct {
	Expense   string
	Liability string
	Revenue   string
}

var bucketAccounts = map[Bucket]BucketAccounts{
	BucketTax:      {AcctTaxExpense, AcctTaxLiability, AcctTaxRevenue},
	BucketPenalty:  {AcctPenaltyExpense, AcctPenaltyLiability, AcctPenaltyRevenue},
	BucketInterest: {AcctInterestExpense, AcctInterestLiability, AcctInterestRevenue},
}

// AccountsFor returns the accounts used for bucket b.
func AccountsFor(b Bucket) BucketAccounts {
	return bucketAccounts[b]
}

// FilerLiabilityAccounts are summed by reconciliation and payment allocation.
var FilerLiabilityAccounts = []string{AcctTaxLiability, AcctPenaltyLiability, AcctInterestLiability}
