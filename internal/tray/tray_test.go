package tray

import (
	"testing"

	"github.com/frc2554/targetvision/internal/target"
)

func TestResultTitle(t *testing.T) {
	tests := []struct {
		name   string
		result target.DetectionResult
		want   string
	}{
		{"no target", target.NoTarget(), "Yaw: no target"},
		{"left", target.DetectionResult{TargetExists: true, YawAngle: -12.1454}, "Yaw: -12.15°"},
		{"centered", target.DetectionResult{TargetExists: true}, "Yaw: 0.00°"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResultTitle(tt.result); got != tt.want {
				t.Errorf("ResultTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTray_Toggle(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Fatal("tray should start enabled")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("two toggles should restore enabled")
	}
	if ToggleTitle(false) == ToggleTitle(true) {
		t.Error("toggle titles should differ by state")
	}
}

func TestTray_SetResult(t *testing.T) {
	tr := New()
	if tr.LastTitle() != "Yaw: no target" {
		t.Errorf("initial title = %q", tr.LastTitle())
	}

	tr.SetResult(target.DetectionResult{TargetExists: true, YawAngle: 3.5})
	if tr.LastTitle() != "Yaw: 3.50°" {
		t.Errorf("title = %q", tr.LastTitle())
	}
}

func TestTray_Dashboard(t *testing.T) {
	tr := New()
	tr.handleDashboard()

	called := false
	tr.OnDashboard(func() { called = true })
	tr.handleDashboard()
	if !called {
		t.Error("dashboard callback not called")
	}
}
