package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Service
	FieldService = "service"

	// Delivery
	FieldTransport    = "transport"
	FieldMessageID    = "message_id"
	FieldSubscription = "subscription"
	FieldTopic        = "topic"
	FieldPartition    = "partition"
	FieldOffset       = "offset"

	// Objects
	FieldBucket      = "bucket"
	FieldObject      = "object"
	FieldDestBucket  = "dest_bucket"
	FieldDestObject  = "dest_object"
	FieldContentType = "content_type"
	FieldBytes       = "bytes"
	FieldWidth       = "width"
	FieldHeight      = "height"
)
