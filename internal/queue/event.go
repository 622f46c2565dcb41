// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into notification log lines.
package queue

// NotificationQueueName is the durable queue both the publisher and the
// consumer agree on.
const NotificationQueueName = "backoffice.notifications"

// Notification kinds.
const (
    KindWorkOrderCreated = "work_order.created"
    KindInvoiceOverdue   = "invoice.overdue"
)

// NotificationEvent is published whenever something back-office staff
// should hear about happens.  It carries enough denormalized context for
// downstream consumers to log or notify without querying the primary
// database.
type NotificationEvent struct {
    Kind         string `json:"kind"`
    OrgID        uint64 `json:"org_id"`
    PropertyID   uint64 `json:"property_id,omitempty"`
    PropertyName string `json:"property_name,omitempty"`
    WorkOrderID  uint64 `json:"work_order_id,omitempty"`
    InvoiceID    uint64 `json:"invoice_id,omitempty"`
    LeaseID      uint64 `json:"lease_id,omitempty"`
    Title        string `json:"title,omitempty"`
    Priority     string `json:"priority,omitempty"`
    AmountCents  int64  `json:"amount_cents,omitempty"`
    OccurredAt   string `json:"occurred_at"`
}
