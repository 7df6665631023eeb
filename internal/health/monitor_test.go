package health

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("instance-1")

	if cfg.InstanceID != "instance-1" {
		t.Errorf("InstanceID = %q, want instance-1", cfg.InstanceID)
	}
	if cfg.HeartbeatInterval.Seconds() != 30 {
		t.Errorf("HeartbeatInterval = %v, want 30s", cfg.HeartbeatInterval)
	}
	if cfg.DeadThreshold.Seconds() != 120 {
		t.Errorf("DeadThreshold = %v, want 120s", cfg.DeadThreshold)
	}
	if cfg.StuckJobThreshold.Minutes() != 30 {
		t.Errorf("StuckJobThreshold = %v, want 30m", cfg.StuckJobThreshold)
	}
}

func TestNewAppliesDefaultsForZeroValues(t *testing.T) {
	m := New(nil, nil, nil, Config{InstanceID: "x"})

	if m.config.HeartbeatInterval.Seconds() != 30 {
		t.Errorf("HeartbeatInterval default not applied: %v", m.config.HeartbeatInterval)
	}
	if m.config.DeadThreshold.Seconds() != 120 {
		t.Errorf("DeadThreshold default not applied: %v", m.config.DeadThreshold)
	}
	if m.config.StuckJobThreshold.Minutes() != 30 {
		t.Errorf("StuckJobThreshold default not applied: %v", m.config.StuckJobThreshold)
	}
}
