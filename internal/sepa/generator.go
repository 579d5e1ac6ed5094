package sepa

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courtline/courtline/internal/shared"
)

const painNamespace = "urn:iso:std:iso:20022:tech:xsd:pain.001.001.03"

var (
	ErrNoRows           = errors.New("sepa: no transfer rows")
	ErrNonPositiveCents = errors.New("sepa: transfer amount must be positive")
)

// Config identifies the debtor side of every generated batch, the club's own
// account.
type Config struct {
	DebtorName string
	DebtorIBAN string
	DebtorBIC  string
}

// Row is one credit transfer to a trainer.
type Row struct {
	RecipientName string
	RecipientIBAN string
	AmountCents   shared.Cents
	Reference     string
}

// Generator renders pain.001.001.03 credit transfer batches.
type Generator struct {
	cfg Config
}

// NewGenerator builds a Generator. The debtor account is validated once here
// rather than on every batch.
func NewGenerator(cfg Config) (*Generator, error) {
	if err := ValidateIBAN(cfg.DebtorIBAN); err != nil {
		return nil, fmt.Errorf("debtor iban: %w", err)
	}
	cfg.DebtorIBAN = NormalizeIBAN(cfg.DebtorIBAN)
	return &Generator{cfg: cfg}, nil
}

// Generate renders one batch. Any invalid row aborts the whole file: a batch
// that silently dropped a trainer's payout would be worse than no batch.
func (g *Generator) Generate(rows []Row, createdAt shared.Day) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	var totalCents shared.Cents
	txs := make([]transaction, 0, len(rows))
	for i, row := range rows {
		if row.AmountCents <= 0 {
			return nil, fmt.Errorf("row %d (%s): %w", i, row.RecipientName, ErrNonPositiveCents)
		}
		if err := ValidateIBAN(row.RecipientIBAN); err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, row.RecipientName, err)
		}
		totalCents += row.AmountCents
		txs = append(txs, transaction{
			PmtID:    paymentID{EndToEndID: uuid.NewString()},
			Amt:      amount{InstdAmt: instructedAmount{Ccy: "EUR", Value: row.AmountCents.String()}},
			Cdtr:     party{Nm: SanitizeText(row.RecipientName, 70)},
			CdtrAcct: account{ID: accountID{IBAN: NormalizeIBAN(row.RecipientIBAN)}},
			RmtInf:   remittance{Ustrd: SanitizeText(row.Reference, 140)},
		})
	}
	ctrlSum := decimal.New(int64(totalCents), -2).StringFixed(2)

	doc := document{
		Xmlns: painNamespace,
		Initn: initiation{
			GrpHdr: groupHeader{
				MsgID:    uuid.NewString(),
				CreDtTm:  createdAt.Time().Format("2006-01-02T15:04:05"),
				NbOfTxs:  len(txs),
				CtrlSum:  ctrlSum,
				InitgPty: party{Nm: SanitizeText(g.cfg.DebtorName, 70)},
			},
			PmtInf: paymentInfo{
				PmtInfID:     uuid.NewString(),
				PmtMtd:       "TRF",
				NbOfTxs:      len(txs),
				CtrlSum:      ctrlSum,
				ReqdExctnDt:  createdAt.String(),
				Dbtr:         party{Nm: SanitizeText(g.cfg.DebtorName, 70)},
				DbtrAcct:     account{ID: accountID{IBAN: g.cfg.DebtorIBAN}},
				DbtrAgt:      agent{FinInst: finInst{BIC: g.cfg.DebtorBIC}},
				Transactions: txs,
			},
		},
	}

	payload, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), payload...), nil
}
