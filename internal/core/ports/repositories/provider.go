package repositories

// RepositoryProvider bundles every repository implementation handed to the
// service layer.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryWithTx
	TransactionRepo TransactionRepositoryWithTx
}
