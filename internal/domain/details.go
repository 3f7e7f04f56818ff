// internal/domain/details.go
package domain

import (
	"encoding/json"
	"fmt"
)

// Details carries the metadata of one transaction type. Each variant holds only
// the fields that make sense for its type.
type Details interface {
	TransactionType() TransactionType
}

// DepositDetails describes where deposited funds came from.
type DepositDetails struct {
	Source      string `json:"source,omitempty"`
	ExternalRef string `json:"external_ref,omitempty"`
}

func (DepositDetails) TransactionType() TransactionType { return TransactionTypeDeposit }

// WithdrawalDetails describes where withdrawn funds are sent.
type WithdrawalDetails struct {
	DestinationAddress string `json:"destination_address"`
}

func (WithdrawalDetails) TransactionType() TransactionType { return TransactionTypeWithdrawal }

// TransferDetails describes both legs of a transfer. SenderWalletID is set on
// the recipient's credit entry.
type TransferDetails struct {
	RecipientWalletID string `json:"recipient_wallet_id,omitempty"`
	RecipientAddress  string `json:"recipient_address,omitempty"`
	SenderWalletID    string `json:"sender_wallet_id,omitempty"`
}

func (TransferDetails) TransactionType() TransactionType { return TransactionTypeTransfer }

// ListingDetails records a marketplace listing.
type ListingDetails struct {
	ItemID string `json:"item_id"`
}

func (ListingDetails) TransactionType() TransactionType { return TransactionTypeNFTList }

// TradeDetails is shared by the purchase and sale legs of a marketplace trade.
type TradeDetails struct {
	Side                 TransactionType `json:"-"`
	ItemID               string          `json:"item_id"`
	CounterpartyWalletID string          `json:"counterparty_wallet_id"`
}

func (d TradeDetails) TransactionType() TransactionType { return d.Side }

// DecodeDetails rebuilds the variant for txType from its stored JSON.
func DecodeDetails(txType TransactionType, raw []byte) (Details, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var (
		d   Details
		err error
	)
	switch txType {
	case TransactionTypeDeposit:
		var v DepositDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TransactionTypeWithdrawal:
		var v WithdrawalDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TransactionTypeTransfer:
		var v TransferDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TransactionTypeNFTList:
		var v ListingDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TransactionTypePurchase, TransactionTypeSale:
		var v TradeDetails
		err = json.Unmarshal(raw, &v)
		v.Side = txType
		d = v
	default:
		return nil, fmt.Errorf("unknown transaction type %q", txType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s details: %w", txType, err)
	}
	return d, nil
}

// EncodeDetails serializes d for storage.
func EncodeDetails(d Details) ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}
