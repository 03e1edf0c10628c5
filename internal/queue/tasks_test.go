package queue

import (
	"encoding/json"
	"testing"
)

func TestRedisOptParsesURL(t *testing.T) {
	opt := RedisOpt("redis://:sekret@cache.internal:6380/2", "ignored", 0)
	if opt.Addr != "cache.internal:6380" {
		t.Errorf("addr = %q, want cache.internal:6380", opt.Addr)
	}
	if opt.Password != "sekret" {
		t.Errorf("password = %q, want the one from the URL", opt.Password)
	}
	if opt.DB != 2 {
		t.Errorf("db = %d, want 2", opt.DB)
	}
}

func TestRedisOptPlainHostPort(t *testing.T) {
	opt := RedisOpt("localhost:6379", "sekret", 3)
	if opt.Addr != "localhost:6379" || opt.Password != "sekret" || opt.DB != 3 {
		t.Errorf("opt = %+v, want plain values passed through", opt)
	}
}

func TestNewDocumentIngestTask(t *testing.T) {
	payload := DocumentIngestPayload{
		TenantID:    "acme_com",
		DocumentID:  "doc-1",
		Filename:    "policy.txt",
		ContentType: "text/plain",
		FilePath:    "/tmp/staged",
	}

	task, err := NewDocumentIngestTask(payload)
	if err != nil {
		t.Fatalf("NewDocumentIngestTask: %v", err)
	}
	if task.Type() != TaskDocumentIngest {
		t.Errorf("task type = %s, want %s", task.Type(), TaskDocumentIngest)
	}
	var decoded DocumentIngestPayload
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded != payload {
		t.Errorf("payload round trip = %+v, want %+v", decoded, payload)
	}
}
