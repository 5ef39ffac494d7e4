package mpesa

import "fmt"

// Result codes Daraja reports in STK callbacks. Reconciliation only branches
// on success vs not; the rest are here for log readability.
const (
	ResultSuccess           = 0
	ResultInsufficientFunds = 1
	ResultUserCancelled     = 1032
)

const receiptItemName = "MpesaReceiptNumber"

// CallbackEnvelope mirrors the JSON body Daraja posts to the callback URL.
type CallbackEnvelope struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback is the payment outcome for one push attempt.
type STKCallback struct {
	MerchantRequestID string           `json:"MerchantRequestID"`
	CheckoutRequestID string           `json:"CheckoutRequestID"`
	ResultCode        int              `json:"ResultCode"`
	ResultDesc        string           `json:"ResultDesc"`
	CallbackMetadata  CallbackMetadata `json:"CallbackMetadata"`
}

// CallbackMetadata is only present on successful payments.
type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem is a loosely typed name/value pair; Value may be a string or
// a number depending on the item.
type MetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// Success reports whether the callback describes a completed payment.
func (c STKCallback) Success() bool {
	return c.ResultCode == ResultSuccess
}

// ReceiptNumber returns the first MpesaReceiptNumber metadata value, or ""
// when the callback carries none.
func (c STKCallback) ReceiptNumber() string {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name != receiptItemName {
			continue
		}
		if s, ok := item.Value.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", item.Value)
	}
	return ""
}
