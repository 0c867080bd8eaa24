package models

import "testing"

func TestObserverWatches(t *testing.T) {
	o := Anonymous("c1")
	if !o.Watches("farmer") || !o.IsActive() || o.IsBanned() {
		t.Fatalf("anonymous observer should watch everything")
	}
	o.Watching = []string{"field"}
	if o.Watches("farmer") || !o.Watches("field") {
		t.Fatalf("filter not applied")
	}
	o.Activated = -1
	if !o.IsBanned() || o.IsActive() {
		t.Fatalf("expected banned observer")
	}
}
