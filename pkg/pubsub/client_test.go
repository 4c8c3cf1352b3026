package pubsub

import "testing"

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "stockpilot-dev"}

	if got := c.topicResourceName("audit-trail"); got != "projects/stockpilot-dev/topics/audit-trail" {
		t.Fatalf("unexpected resource name: %s", got)
	}
	full := "projects/other/topics/audit-trail"
	if got := c.topicResourceName(full); got != full {
		t.Fatalf("full resource names should pass through, got %s", got)
	}
	if got := c.topicResourceName("  "); got != "" {
		t.Fatalf("blank names should resolve to empty, got %s", got)
	}

	var nilClient *Client
	if got := nilClient.topicResourceName("audit-trail"); got != "" {
		t.Fatalf("nil client should resolve to empty, got %s", got)
	}
}
