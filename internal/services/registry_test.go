package services

import (
	"testing"
)

func TestRegister(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(apache()); err != nil {
		t.Fatalf("Unexpected error registering service: %v", err)
	}
	if err := registry.Register(apache()); err == nil {
		t.Error("Expected error registering duplicate service")
	}
	if err := registry.Register(ManagedService{}); err == nil {
		t.Error("Expected error registering service with empty name")
	}
}

func TestGetAllKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(mysql())
	_ = registry.Register(apache())

	all := registry.GetAll()
	if len(all) != 2 {
		t.Fatalf("Expected 2 services, got %d", len(all))
	}
	if all[0].Name != "anchormysql" || all[1].Name != "anchorapache" {
		t.Errorf("Unexpected order: %s, %s", all[0].Name, all[1].Name)
	}
}

func TestUnregisterAndGet(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(apache())
	_ = registry.Register(mysql())

	if err := registry.Unregister("anchorapache"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := registry.Get("anchorapache"); ok {
		t.Error("Expected service to be gone")
	}
	if err := registry.Unregister("anchorapache"); err == nil {
		t.Error("Expected error unregistering twice")
	}
	if registry.Len() != 1 {
		t.Errorf("Expected 1 service, got %d", registry.Len())
	}
	if got := registry.GetByProduct("mysql"); len(got) != 1 {
		t.Errorf("Expected 1 mysql service, got %d", len(got))
	}
}

func TestSelect(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(mysql())
	_ = registry.Register(apache())

	all, err := registry.Select()
	if err != nil || len(all) != 2 {
		t.Fatalf("Expected every service, got %d (%v)", len(all), err)
	}

	got, err := registry.Select("APACHE", "anchormysql")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "anchormysql" {
		t.Errorf("Expected registration order, got %v", got)
	}

	if _, err := registry.Select("nginx"); err == nil {
		t.Error("Expected error selecting an unknown name")
	}
}
