package document

import (
	"testing"
	"time"
)

func TestDocument_Sign(t *testing.T) {
	d := Document{Status: StatusDraft}
	d.Sign(Signature{UserID: "u1", Signature: "first", SignedAt: time.Now()})
	if d.Status != StatusSigned {
		t.Fatalf("expected signed, got %s", d.Status)
	}
	d.Sign(Signature{UserID: "u1", Signature: "second"})
	d.Sign(Signature{UserID: "u2", Signature: "other"})
	if len(d.SignatureStatus) != 2 {
		t.Fatalf("expected 2 signers, got %d", len(d.SignatureStatus))
	}
	if d.SignatureStatus["u1"].Signature != "second" {
		t.Errorf("expected re-sign to overwrite, got %s", d.SignatureStatus["u1"].Signature)
	}
}

func TestDocument_RecordAccess(t *testing.T) {
	d := Document{}
	d.RecordAccess(AccessEntry{UserID: "u1", Action: "download"})
	d.RecordAccess(AccessEntry{UserID: "u2", Action: "download"})
	if len(d.AccessLog) != 2 || d.AccessLog[1].UserID != "u2" {
		t.Fatalf("unexpected access log: %+v", d.AccessLog)
	}
}
