package paystack

// SignatureHeader carries the HMAC-SHA512 digest of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

const EventChargeSuccess = "charge.success"

type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	AmountMinor int64  `json:"amount"`
}
