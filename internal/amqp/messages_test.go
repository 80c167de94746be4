package amqp

import (
	"testing"
)

func TestLedgerSyncMessageRoundTrip(t *testing.T) {
	msg := NewLedgerSyncMessage("tx-1", ActionUpsert)
	if msg.Timestamp.IsZero() {
		t.Error("NewLedgerSyncMessage should stamp the message")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	parsed, err := LedgerSyncMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if parsed.TransactionID != "tx-1" || parsed.Action != ActionUpsert {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestLedgerSyncMessageFromJSON_Invalid(t *testing.T) {
	if _, err := LedgerSyncMessageFromJSON([]byte("not json")); err == nil {
		t.Error("malformed payload should fail to parse")
	}
}
