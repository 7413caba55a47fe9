package orders

const (
	TopicOrderCreated     = "order.created"
	TopicPaymentSucceeded = "order.payment.succeeded"
	TopicPaymentFailed    = "order.payment.failed"
)

// Partition key = order code, so all events for one order keep their order.
func PartitionKey(orderCode string) []byte { return []byte(orderCode) }
