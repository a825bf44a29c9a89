package mapping

import (
	"database/sql"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/campeconomy/camp_bank_app/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction.
// Entries are mapped separately.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	m := models.Transaction{
		TransactionID: d.TransactionID,
		CreatorID:     d.CreatorID,
		Type:          string(d.Type),
		Description:   d.Description,
		State:         string(d.State),
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
	if d.SupersedesID != nil {
		m.SupersedesID = sql.NullString{String: *d.SupersedesID, Valid: true}
	}
	return m
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	d := domain.Transaction{
		TransactionID: m.TransactionID,
		CreatorID:     m.CreatorID,
		Type:          domain.TransactionType(m.Type),
		Description:   m.Description,
		State:         domain.TransactionState(m.State),
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
	if m.SupersedesID.Valid {
		d.SupersedesID = &m.SupersedesID.String
	}
	return d
}

// ToDomainTransactionSlice converts a slice of model Transactions to a slice of domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:       d.EntryID,
		TransactionID: d.TransactionID,
		AccountID:     d.AccountID,
		Bucks:         d.Bucks,
		Certificates:  d.Certs,
		Lab:           d.Lab,
		Lecture:       d.Lecture,
		Seminar:       d.Seminar,
		Faculty:       d.Faculty,
		Description:   d.Description,
		Counted:       d.Counted,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:       m.EntryID,
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		Bucks:         m.Bucks,
		Certs:         m.Certificates,
		Lab:           m.Lab,
		Lecture:       m.Lecture,
		Seminar:       m.Seminar,
		Faculty:       m.Faculty,
		Description:   m.Description,
		Counted:       m.Counted,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLedgerEntrySlice converts a slice of model LedgerEntries to a slice of domain LedgerEntries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
