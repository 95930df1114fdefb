package ws

import "testing"

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient("dm:a_b", nil, ConnInfo{UserID: "a"})
	if len(hub.rooms) != 1 {
		t.Fatalf("expected conversation room to be created")
	}

	hub.RemoveClient("dm:a_b", nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected conversation room to be removed")
	}
	if len(hub.connInfo) != 0 {
		t.Fatalf("expected conn info to be removed")
	}
}

func TestHubRoomsAreIndependent(t *testing.T) {
	hub := NewHub()

	hub.AddClient("dm:a_b", nil, ConnInfo{UserID: "a"})
	hub.AddClient("group-1", nil, ConnInfo{UserID: "a"})

	hub.RemoveClient("dm:a_b", nil)
	if len(hub.rooms) != 1 {
		t.Fatalf("expected unrelated room to survive")
	}
}
