package orders

const TopicStatusChanged = "order.status.changed"

// Partition key = order_id so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
