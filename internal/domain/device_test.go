package domain

import "testing"

func TestParseDeviceKind(t *testing.T) {
	tests := []struct {
		input   string
		want    DeviceKind
		wantErr bool
	}{
		{"router", DeviceKindRouter, false},
		{"switch", DeviceKindSwitch, false},
		{"host", DeviceKindHost, false},
		{"pc", DeviceKindHost, false},
		{"firewall", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDeviceKind(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDeviceKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDeviceKind(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseCableKind(t *testing.T) {
	tests := []struct {
		input   string
		want    CableKind
		wantErr bool
	}{
		{"", CableAuto, false},
		{"auto", CableAuto, false},
		{"serial", CableSerial, false},
		{"console", CableConsole, false},
		{"coax", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCableKind(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCableKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCableKind(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}

	if CableAuto.Stored() {
		t.Error("auto must never be stored on a cable")
	}
}

func TestCableEnds(t *testing.T) {
	c := Cable{From: 1, FromPort: 2, To: 3, ToPort: 4}

	if !c.Involves(1) || !c.Involves(3) || c.Involves(2) {
		t.Error("Involves should match only the two devices")
	}
	if !c.Terminates(3, 4) || c.Terminates(3, 2) {
		t.Error("Terminates should match device and port together")
	}
	if dev, port := c.OtherEnd(1); dev != 3 || port != 4 {
		t.Errorf("OtherEnd(1) = %d,%d, want 3,4", dev, port)
	}
	if dev, port := c.OtherEnd(3); dev != 1 || port != 2 {
		t.Errorf("OtherEnd(3) = %d,%d, want 1,2", dev, port)
	}
	if c.LocalPort(3) != 4 {
		t.Errorf("LocalPort(3) = %d, want 4", c.LocalPort(3))
	}
}

func TestInterfaceUp(t *testing.T) {
	tests := []struct {
		admin, connected, want bool
	}{
		{true, true, true},
		{true, false, false},
		{false, true, false},
	}
	for _, tt := range tests {
		i := Interface{AdminStatus: tt.admin, Connected: tt.connected}
		if got := i.Up(); got != tt.want {
			t.Errorf("Up() with admin=%v connected=%v = %v, want %v", tt.admin, tt.connected, got, tt.want)
		}
	}
}

func TestDeviceSelected(t *testing.T) {
	d := Device{Interfaces: []Interface{{Name: "a"}, {Name: "b"}}}
	if d.Selected() != nil {
		t.Error("expected no selection")
	}

	idx := 1
	d.SelectedInterface = &idx
	if sel := d.Selected(); sel == nil || sel.Name != "b" {
		t.Errorf("Selected() = %v, want b", sel)
	}

	idx = 5
	if d.Selected() != nil {
		t.Error("out of range selection should be nil")
	}
	if d.HasIP() {
		t.Error("HasIP() should be false without addresses")
	}
}
